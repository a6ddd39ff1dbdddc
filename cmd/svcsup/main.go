// Command svcsup starts, stops and inspects supervised daemon services
// defined in a config file.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/giantswarm/svcsup"
)

var (
	config     cliConfig
	configPath string // actual config file used (if any)

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
	flagDebug          bool   // value of start --debug flag
)

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is svcsup.yaml in current directory or in /etc/svcsup")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")
	startCmd.Flags().BoolVar(&flagDebug, "debug", false, "launch the daemon in a tmux session instead of supervising it")

	// never print messages
	rootCmd.SilenceErrors = true

	// parse the config, setup logging
	rootCmd.PersistentPreRunE = initConfig

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("svcsup failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "svcsup",
	Short:        "Supervisor for long-running daemon services",
	SilenceUsage: true,
}

var startCmd = &cobra.Command{
	Use:   "start <service>",
	Short: "start launches a service and waits for it to report ready",
	Args:  cobra.ExactArgs(1),
	RunE:  doStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop <service>",
	Short: "stop terminates a service and waits for it to exit",
	Args:  cobra.ExactArgs(1),
	RunE:  doStop,
}

var restartCmd = &cobra.Command{
	Use:   "restart <service>",
	Short: "restart stops a service if it runs, then starts it",
	Args:  cobra.ExactArgs(1),
	RunE:  doRestart,
}

var statusCmd = &cobra.Command{
	Use:   "status [service]",
	Short: "status reports the run state of one or all services",
	Args:  cobra.MaximumNArgs(1),
	RunE:  doStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provides the version of svcsup",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("svcsup: version info not available")
			return
		}
		if configPath != "" {
			fmt.Printf("config: %s\n", configPath)
		}
		fmt.Printf("svcsup: %s\n", info.Main.Version)
		fmt.Printf("go:     %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit: %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:   %s\n", s.Value)
			}
		}
	},
}

func initConfig(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var err error
	config, configPath, err = loadConfig(flagConfigFilePath)
	return err
}

// newSupervisor builds a supervisor from the loaded config.
func newSupervisor(cmd *cobra.Command) (*svcsup.Supervisor, error) {
	return svcsup.New(cmd.Context(), config.supervisorOptions()...)
}

func doStart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := config.service(args[0], flagDebug)
	if err != nil {
		return err
	}
	sup, err := newSupervisor(cmd)
	if err != nil {
		return err
	}

	launch, err := sup.Start(ctx, svc)
	if err != nil {
		return err
	}
	switch {
	case launch.Session != "":
		fmt.Printf("%s launched in tmux session %s (attach with: tmux attach -t %s)\n",
			launch.Name, launch.Session, launch.Session)
	case launch.Ready:
		fmt.Printf("%s running, pid %d\n", launch.Name, launch.PID)
	default:
		fmt.Printf("%s running, pid %d, but it has NOT reported ready yet\n", launch.Name, launch.PID)
	}
	return nil
}

func doStop(cmd *cobra.Command, args []string) error {
	svc, err := config.service(args[0], false)
	if err != nil {
		return err
	}
	sup, err := newSupervisor(cmd)
	if err != nil {
		return err
	}

	if err := sup.Stop(cmd.Context(), svc); err != nil {
		return err
	}
	fmt.Printf("%s stopped\n", svc.Name)
	return nil
}

func doRestart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := config.service(args[0], flagDebug)
	if err != nil {
		return err
	}
	sup, err := newSupervisor(cmd)
	if err != nil {
		return err
	}

	if err := sup.Stop(ctx, svc); err != nil && !errors.Is(err, svcsup.ErrNotRunning) {
		return err
	}
	launch, err := sup.Start(ctx, svc)
	if err != nil {
		return err
	}
	fmt.Printf("%s restarted, pid %d\n", launch.Name, launch.PID)
	return nil
}

func doStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sup, err := newSupervisor(cmd)
	if err != nil {
		return err
	}

	var statuses []svcsup.Status
	if len(args) == 1 {
		st, err := sup.Status(ctx, args[0])
		if err != nil {
			return err
		}
		statuses = append(statuses, st)
	} else {
		statuses, err = sup.List(ctx)
		if err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSTATE\tPID\tSESSION\tSINCE")
	for _, st := range statuses {
		pid := ""
		if st.PID > 0 {
			pid = fmt.Sprint(st.PID)
		}
		since := ""
		if !st.UpdatedAt.IsZero() {
			since = st.UpdatedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", st.Name, st.State, pid, st.Session, since)
	}
	return w.Flush()
}
