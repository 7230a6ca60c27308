package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"phtrs/internal/app"
	"phtrs/internal/config"
	"phtrs/internal/render"
	"phtrs/internal/scenario"
)

func main() {
	if err := newRootCmd(viper.New(), os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type cli struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(v *viper.Viper, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{v: v, stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "phtrs",
		Short: "Pothole tracking and repair system",
		Long: `phtrs tracks pothole reports from filing to repair.
- Reports: citizens file a pothole with a 1-10 severity; priority (Low/Medium/High) is derived once.
- Work orders: dispatchers assign a crew to a report; crews log hours and material, then complete the repair.
- Damage claims: citizens claim damages against a report.
Nothing is persisted: each invocation runs a scenario against a fresh in-memory registry and prints the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	c.initConfig()
	c.addPersistentFlags(root)
	root.AddCommand(c.demoCmd())
	root.AddCommand(c.runCmd())
	root.AddCommand(c.configCmd())
	return root
}

func (c *cli) initConfig() {
	c.v.SetEnvPrefix("PHTRS")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
}

func (c *cli) addPersistentFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default "+config.Path("")+")")
	flags.Bool("json", false, "output JSON")
	flags.String("format", render.FormatTable, "output format: table, markdown or json")
	flags.Bool("events", false, "include the event log in the output")
	flags.Bool("metrics", false, "print operation counters after the run")
	flags.String("log-level", "", "log level override (debug, info, warn, error)")
	flags.String("log-format", "", "log format override (text, json)")
	flags.String("log-file", "", "also append log lines to this file")
	for _, name := range []string{"config", "json", "format", "events", "metrics", "log-level", "log-format", "log-file"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}
}

func (c *cli) demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "File, repair and claim against one pothole",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScenario(scenario.Demo())
		},
	}
}

func (c *cli) runCmd() *cobra.Command {
	var file string
	var continueOnError bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a YAML scenario of registry operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.FromFile(file)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("continue-on-error") {
				sc.ContinueOnError = continueOnError
			}
			return c.runScenario(sc)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "scenario file")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep going after a failed step")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage configuration"}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ResolveConfig(c.options())
			if err != nil {
				return err
			}
			if c.format() == render.FormatJSON {
				return c.printJSON(cfg)
			}
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = c.stdout.Write(data)
			return err
		},
	})
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath()
			if _, err := config.Load(path); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%s is valid\n", path)
			return nil
		},
	})
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath()
			if err := config.Write(path, force); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}

// runScenario executes sc against a fresh registry and prints the outcome.
// Step failures are reported in the output and returned as the command error.
func (c *cli) runScenario(sc *scenario.Scenario) error {
	a, err := app.New(c.options())
	if err != nil {
		return err
	}
	defer a.Close()

	res := scenario.Run(a.Registry, sc)
	a.Logger.Info("scenario finished", "executed", res.Executed, "steps", len(sc.Steps), "failures", len(res.Failures))

	snap := render.SnapshotOf(a.Registry, c.v.GetBool("events"))
	for _, f := range res.Failures {
		snap.Failures = append(snap.Failures, f.Error())
	}
	w, err := render.New(c.format(), c.stdout)
	if err != nil {
		return err
	}
	if err := w.Write(snap); err != nil {
		return err
	}
	if c.v.GetBool("metrics") {
		if err := c.printCounters(a); err != nil {
			return err
		}
	}
	return res.Err()
}

// options collects the config path and log overrides from flags and PHTRS_* env.
func (c *cli) options() app.Options {
	return app.Options{
		ConfigPath: c.v.GetString("config"),
		Required:   c.v.GetString("config") != "",
		LogLevel:   c.v.GetString("log-level"),
		LogFormat:  c.v.GetString("log-format"),
		LogFile:    c.v.GetString("log-file"),
		Stderr:     c.stderr,
	}
}

func (c *cli) format() string {
	if c.v.GetBool("json") {
		return render.FormatJSON
	}
	return c.v.GetString("format")
}

func (c *cli) configPath() string {
	if p := c.v.GetString("config"); p != "" {
		return p
	}
	return config.Path("")
}

func (c *cli) printCounters(a *app.App) error {
	counters, err := a.Counters()
	if err != nil {
		return err
	}
	if c.format() == render.FormatJSON {
		return c.printJSON(counters)
	}
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := table.NewWriter()
	tw.SetOutputMirror(c.stdout)
	tw.SetTitle("Counters")
	tw.AppendHeader(table.Row{"Metric", "Value"})
	for _, k := range keys {
		tw.AppendRow(table.Row{k, counters[k]})
	}
	tw.Render()
	return nil
}

func (c *cli) printJSON(v any) error {
	return render.NewJSONWriter(c.stdout).Encode(v)
}
