/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/transcritic/internal/detector"
	"github.com/valpere/transcritic/internal/markdown"
	"github.com/valpere/transcritic/internal/orchestrator"
)

var (
	inputText    string
	inputFile    string
	outputFile   string
	targetLang   string
	htmlOutput   bool
	detectSource bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate text and print the evaluation",
	Long: `Translate text into the target language with the translator model, then
ask the judge model to rate the translation from 1 to 10.

Input is taken from --text, then --input, then standard input.

The evaluation is printed as plain text, or as sanitised HTML with --html.
A failed evaluation still prints the translation and exits successfully;
a failed translation exits with an error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		text, err := readInput(cmd.InOrStdin())
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		stderr := cmd.ErrOrStderr()
		if detectSource {
			if detected, ok := detector.New().DetectISO(text); ok {
				fmt.Fprintf(stderr, "Detected source language: %s\n", detected)
			}
		}

		res := a.orch.Process(cmd.Context(), strings.TrimSpace(text), targetLang)
		if res.Error != "" {
			return errors.New(res.Error)
		}

		if outputFile != "" {
			if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if err := os.WriteFile(outputFile, []byte(res.TranslatedText), 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
		}

		return printResult(cmd.OutOrStdout(), res, htmlOutput)
	},
}

func readInput(stdin io.Reader) (string, error) {
	switch {
	case inputText != "":
		return inputText, nil
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}
}

func printResult(w io.Writer, res *orchestrator.Result, asHTML bool) error {
	var evaluation string
	switch {
	case asHTML:
		evaluation = string(res.Evaluation)
	case res.EvaluationFailed:
		evaluation = orchestrator.MsgEvaluationUnavailable
	default:
		evaluation = markdown.ToPlainText([]byte(res.EvaluationRaw))
	}

	if _, err := fmt.Fprintf(w, "Translation (%s):\n%s\n\n", res.TargetLanguage, res.TranslatedText); err != nil {
		return err
	}
	if res.LanguageMismatch {
		if _, err := fmt.Fprintf(w, "Warning: the translation does not look like %s.\n\n", res.TargetLanguage); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Evaluation:\n%s\n", strings.TrimSpace(evaluation))
	return err
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language, e.g. French (required)")
	translateCmd.Flags().StringVar(&inputText, "text", "", "Text to translate")
	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Also write the translation to this file")
	translateCmd.Flags().BoolVar(&htmlOutput, "html", false, "Print the evaluation as sanitised HTML")
	translateCmd.Flags().BoolVar(&detectSource, "detect-source", false, "Report the detected source language on stderr")

	translateCmd.MarkFlagRequired("target")
}
