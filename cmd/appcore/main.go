package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/infracollect/appcore"
	"github.com/infracollect/appcore/cache"
	"github.com/infracollect/appcore/problem"
	"github.com/infracollect/appcore/source"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	cacheDir   string
	baseURL    string
	timeout    time.Duration
	token      string
	enableS3   bool
	strict     bool
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "appcore",
		Short:         "Image cache and API client core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML configuration file (optional)")
	pf.StringVar(&g.cacheDir, "cache-dir", "", "Image cache directory (env: "+appcore.EnvCacheDir+")")
	pf.StringVar(&g.baseURL, "base-url", "", "API base URL (env: "+appcore.EnvBaseURL+")")
	pf.DurationVar(&g.timeout, "timeout", 0, "Request timeout (env: "+appcore.EnvTimeoutMillis+" in milliseconds)")
	pf.BoolVar(&g.verbose, "verbose", false, "Enable verbose logging")

	root.AddCommand(
		newImageCmd(g),
		newRequestCmd(g),
		newClearCmd(g),
	)
	return root
}

// logger configures logging: slog -> logr -> library
func (g *globalFlags) logger(w io.Writer) logr.Logger {
	logLevel := slog.LevelInfo
	if g.verbose {
		logLevel = slog.LevelDebug
	}
	return logr.FromSlogHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func (g *globalFlags) load() (appcore.FileConfig, error) {
	fc, err := appcore.LoadFileConfig(g.configPath)
	if err != nil {
		return fc, err
	}
	// Flags take precedence over file and environment.
	if g.baseURL != "" {
		fc.API.URL = g.baseURL
	}
	if g.timeout > 0 {
		fc.API.TimeoutMillis = int(g.timeout / time.Millisecond)
	}
	if g.cacheDir != "" {
		fc.Cache.Dir = g.cacheDir
	}
	return fc, nil
}

func (g *globalFlags) newCache(cmd *cobra.Command) (*cache.FilesystemCache, error) {
	fc, err := g.load()
	if err != nil {
		return nil, err
	}
	dir, err := fc.CacheDir()
	if err != nil {
		return nil, err
	}

	mux := source.NewMux()
	if g.enableS3 {
		s3Fetcher, err := source.NewDefaultS3Fetcher(cmd.Context())
		if err != nil {
			return nil, err
		}
		mux.Handle("s3", s3Fetcher)
	}

	return cache.NewFilesystemCache(dir, mux, cache.WithLogger(g.logger(cmd.ErrOrStderr()))), nil
}

func newImageCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image <id> <url>",
		Short: "Resolve an image to a local file, downloading it on first use",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.newCache(cmd)
			if err != nil {
				return err
			}
			path, err := c.Resolve(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&g.enableS3, "s3", false, "Allow s3://bucket/key URLs using the default AWS credential chain")
	return cmd
}

func newClearCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.newCache(cmd)
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared successfully")
			return nil
		},
	}
}

func newRequestCmd(g *globalFlags) *cobra.Command {
	var (
		data        string
		contentType string
		headers     []string
	)

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send an API request and print the classified result as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := g.load()
			if err != nil {
				return err
			}

			opts := []appcore.Option{
				appcore.WithConfig(fc.APIConfig()),
				appcore.WithLogger(g.logger(cmd.ErrOrStderr())),
			}
			if g.token != "" {
				token := g.token
				opts = append(opts, appcore.WithTokenSource(appcore.TokenFunc(func(context.Context) (string, error) {
					return token, nil
				})))
			}
			if g.strict {
				opts = append(opts, appcore.WithStrictPayload())
			}
			api, err := appcore.New(opts...)
			if err != nil {
				return fmt.Errorf("failed to create api: %w", err)
			}

			extra := make(http.Header)
			for _, h := range headers {
				k, v, ok := strings.Cut(h, ":")
				if !ok {
					return fmt.Errorf("header must be in format Name: value, got %q", h)
				}
				extra.Add(strings.TrimSpace(k), strings.TrimSpace(v))
			}

			req := appcore.Request{
				Method:        strings.ToUpper(args[0]),
				Path:          args[1],
				Authenticated: g.token != "",
				ContentType:   contentType,
				Header:        extra,
			}
			if data != "" {
				req.Body = []byte(data)
			}

			res, ok := api.Call(cmd.Context(), req, false)
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "Request cancelled")
				return nil
			}

			out, err := json.MarshalIndent(newResultOutput(res), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal result to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return res.Err()
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Request body")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Content-Type override")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra header, repeatable (Name: value)")
	cmd.Flags().StringVar(&g.token, "token", "", "Bearer token; marks the request as authenticated")
	cmd.Flags().BoolVar(&g.strict, "strict", false, "Classify successful responses without a result field as bad-data")
	return cmd
}

type resultOutput struct {
	Kind      problem.Kind    `json:"kind"`
	Temporary bool            `json:"temporary,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func newResultOutput(res problem.Result) resultOutput {
	return resultOutput{Kind: res.Kind, Temporary: res.Temporary, Data: res.Data}
}
