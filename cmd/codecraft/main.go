/*
CodeCraft CLI

Command line client for the CodeCraft code generation service.

Usage:

	codecraft generate [--language auto|<tag>] [--no-format] [--max-tokens N] [--output file] <prompt>
	codecraft health
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Anoka2002/codecraftagent/internal/models"
	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8000"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	server  string
	timeout time.Duration
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "codecraft",
		Short:         "Generate code from natural-language prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	server := os.Getenv("CODECRAFT_SERVER")
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "CodeCraft server URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(newGenerateCmd(opts), newHealthCmd(opts))
	return root
}

func newGenerateCmd(opts *options) *cobra.Command {
	var (
		lang      string
		noFormat  bool
		maxTokens int
		output    string
	)

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate code for a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := buildRequest(strings.Join(args, " "), lang, noFormat, maxTokens)

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			client := newAPIClient(opts.server, &http.Client{Timeout: opts.timeout})
			resp, err := client.Generate(ctx, req)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
				return err
			}

			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), resp.GeneratedCode)
				return nil
			}
			if err := os.WriteFile(output, []byte(resp.GeneratedCode+"\n"), 0o644); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to write %s: %v\n", output, err)
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s code to %s\n", resp.Language, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "auto", "target language, or auto to let the server choose")
	cmd.Flags().BoolVar(&noFormat, "no-format", false, "skip formatting")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "token budget (server default when 0)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write code to a file instead of stdout")
	return cmd
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server and formatter status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			client := newAPIClient(opts.server, &http.Client{Timeout: opts.timeout})
			raw, err := client.DeepHealth(ctx)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
				return err
			}

			var report map[string]any
			if err := json.Unmarshal(raw, &report); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

// buildRequest maps CLI flags onto a request. "auto" leaves the language to the server.
func buildRequest(prompt, lang string, noFormat bool, maxTokens int) models.CodeRequest {
	req := models.NewCodeRequest(prompt)
	req.MaxTokens = maxTokens
	if lang != "" && !strings.EqualFold(lang, "auto") {
		req.Language = lang
	}
	if noFormat {
		format := false
		req.Format = &format
	}
	return req
}
