package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"pagemirror/internal/pkg/config"
	"pagemirror/internal/pkg/log"
	"pagemirror/internal/pkg/mirror"
)

func getCmd() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get [URL]",
		Short: "Mirror the given URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("viper config is nil")
			}

			var seed string
			if len(args) == 1 {
				seed = strings.TrimSpace(args[0])
				if _, err := parseSeed(seed); err != nil {
					return err
				}
			} else {
				var err error
				seed, err = promptForURL(os.Stdin, os.Stdout)
				if err != nil {
					return err
				}
			}

			config.Get().Seed = seed

			if err := config.GenerateRunConfig(); err != nil {
				return err
			}

			log.Start()

			client := &http.Client{
				Timeout: time.Duration(config.Get().HTTPTimeout) * time.Second,
			}

			m := mirror.New(config.Get(), client, afero.NewOsFs())
			return m.Run(cmd.Context())
		},
	}

	getCmdFlags(getCmd)

	return getCmd
}

func getCmdFlags(getCmd *cobra.Command) {
	getCmd.PersistentFlags().String("user-agent", "", "User agent to use when requesting URLs.")
	getCmd.PersistentFlags().String("job", "", "Job name to use, will determine the output path of the mirrored page.")
	getCmd.PersistentFlags().StringP("output", "o", "", "Output root directory. Defaults to jobs/<job>.")
	getCmd.PersistentFlags().Int("max-concurrent-assets", 8, "Max number of concurrent asset fetches.")
	getCmd.PersistentFlags().Int("http-timeout", 30, "Number of seconds to wait before timing out a request.")
	getCmd.PersistentFlags().StringSlice("disable-html-tag", []string{}, "Specify HTML tag to not extract assets from")
}

// parseSeed validates that the input is an absolute http(s) URL
func parseSeed(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", raw)
	}

	return u, nil
}

// promptForURL asks interactively for the URL to mirror, re-prompting
// until the input parses as an absolute http(s) URL.
func promptForURL(in *os.File, out *os.File) (string, error) {
	reader := bufio.NewReader(in)

	for {
		fmt.Fprint(out, "Enter the URL to mirror: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("error reading URL: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if _, err := parseSeed(line); err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		return line, nil
	}
}
