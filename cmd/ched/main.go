// Command ched runs the academic scheduling assistant: an HTTP server or a
// one-shot query from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chedhq/ched"
	"github.com/chedhq/ched/config"
	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/runner"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "ched",
		Short:         "Conversational academic scheduling assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newQueryCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Serve()
		},
	}
}

func newQueryCmd(configPath *string) *cobra.Command {
	var (
		userID   string
		threadID string
		docs     []string
	)
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Run one query and stream the answer to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			ch, _, err := app.Runner().StreamQuery(context.Background(), runner.Request{
				Query:     args[0],
				UserID:    userID,
				ThreadID:  threadID,
				Documents: docs,
			})
			if err != nil {
				return err
			}
			streamed := false
			for chunk := range ch {
				switch chunk.Kind {
				case core.ChunkToken:
					fmt.Print(chunk.Content)
					streamed = true
				case core.ChunkFinal:
					if streamed {
						fmt.Println()
					} else {
						fmt.Println(chunk.Response)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "local", "user id")
	cmd.Flags().StringVarP(&threadID, "thread", "t", "", "thread id (new when empty)")
	cmd.Flags().StringSliceVarP(&docs, "doc", "d", nil, "attached document path (repeatable)")
	return cmd
}

func buildApp(configPath string) (*ched.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return ched.New(cfg)
}
