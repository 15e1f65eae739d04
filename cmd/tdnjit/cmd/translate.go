package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TomatOrg/tinydotnet/internal/engine/jit/frontend"
	"github.com/TomatOrg/tinydotnet/internal/engine/jit/ir"
	"github.com/TomatOrg/tinydotnet/internal/jitsamples"
)

var outPath string

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate the built-in sample methods and dump their IR",
	RunE:  runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.Flags().StringVar(&outPath, "out", "", "file to write the dumped IR to (default: stdout)")
}

func runTranslate(_ *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	mod := ir.NewModuleBuilder()
	tr := frontend.NewTranslator(mod, logger.Unwrap())

	for _, s := range jitsamples.All() {
		if _, err := tr.TranslateMethod(s.Method); err != nil {
			logger.Warn("skipping method that failed to translate")
			continue
		}
	}

	dump := mod.Dump()
	if outPath == "" {
		fmt.Println(dump)
		return nil
	}
	return os.WriteFile(outPath, []byte(dump), 0o644)
}
