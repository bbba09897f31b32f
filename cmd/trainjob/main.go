package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	kingpin "github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/common/promslog"
	promslogflag "github.com/prometheus/common/promslog/flag"
	"github.com/prometheus/common/version"

	"trainjob/config"
	"trainjob/internal/pkg/batch"
	"trainjob/internal/pkg/client/slurmctl"
	slurmdbc "trainjob/internal/pkg/client/slurmdb"
	"trainjob/internal/pkg/launcher"
)

// @title           trainjob
// @version         0.1.0
// @description     Slurm training job launcher
// @schemes         http
// @BasePath        /api/v1
func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	app := kingpin.New("trainjob", "Render, submit and run the semantic segmentation training job on Slurm.")
	app.Version(version.Print("trainjob"))
	app.HelpFlag.Short('h')

	var (
		configFile = app.Flag("config", "Path to YAML config file, the built-in job is used when empty").Short('c').Envar("TRAINJOB_CONFIG").String()
		logOutput  = app.Flag("log-output", "Log output destination").Default("stderr").Envar("TRAINJOB_LOG_OUTPUT").Enum("stdout", "stderr", "file")
		logFile    = app.Flag("log-file", "Log file path (used when --log-output=file)").Envar("TRAINJOB_LOG_FILE").String()
	)
	logConfig := &promslog.Config{}
	promslogflag.AddFlags(app, logConfig)

	renderCmd := app.Command("render", "Print the batch script.")
	renderDirectives := renderCmd.Flag("directives", "Print the scheduler directives only").Bool()

	submitCmd := app.Command("submit", "Submit the batch script with sbatch and print the job id.")
	submitDryRun := submitCmd.Flag("dry-run", "Print the script instead of submitting it").Bool()
	submitPreflight := submitCmd.Flag("preflight", "Check partition state and GPU availability before submitting").Envar("TRAINJOB_PREFLIGHT").Bool()
	submitCheckConfig := submitCmd.Flag("check-config", "Also check that the trainer config file is a JSON object (with --preflight)").Bool()
	submitArgs := submitCmd.Arg("sbatch-args", "Extra sbatch arguments, they override the script directives").Strings()

	runCmd := app.Command("run", "Prepare the environment and run the training on this node.")
	runKillWait := runCmd.Flag("kill-wait", "Delay between SIGTERM and SIGKILL of the training process group").Default(launcher.DefaultKillWait.String()).Duration()

	statusCmd := app.Command("status", "Show a job from the scheduling queue, or from accounting once it left the queue.")
	statusJobID := statusCmd.Arg("jobid", "Job ID").Required().String()

	cancelCmd := app.Command("cancel", "Cancel a job.")
	cancelJobID := cancelCmd.Arg("jobid", "Job ID").Required().String()

	serveCmd := app.Command("serve", "Serve the job and Slurm HTTP API.")
	serveAddr := serveCmd.Flag("addr", "Server listen address (e.g. :8080 or 127.0.0.1:8080), overrides server.listen").Envar("TRAINJOB_ADDR").String()
	serveShutdownTimeout := serveCmd.Flag("shutdown-timeout", "Graceful shutdown timeout").Default("10s").Envar("TRAINJOB_SHUTDOWN_TIMEOUT").Duration()

	cmd, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trainjob: %v, try --help\n", err)
		return 2
	}

	logger, cleanup, err := newLogger(*logOutput, *logFile, logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup logger: %v\n", err)
		return 1
	}
	defer cleanup()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.String("path", *configFile), slog.Any("err", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slurmctl.SetDefault(slurmctl.New(logger))

	switch cmd {
	case renderCmd.FullCommand():
		err = render(stdout, cfg, *renderDirectives)
	case submitCmd.FullCommand():
		err = submit(ctx, stdout, cfg, submitOptions{
			dryRun:      *submitDryRun,
			preflight:   *submitPreflight,
			checkConfig: *submitCheckConfig,
			extraArgs:   *submitArgs,
		})
	case runCmd.FullCommand():
		l := launcher.New(logger)
		l.KillWait = *runKillWait
		err = l.Run(ctx, cfg.Job)
		// setup and training failures keep their exit code
		if code := launcher.ExitCode(err); code != 0 {
			logger.Error("run failed", "exit_code", code, "err", err)
			return code
		}
		return 0
	case statusCmd.FullCommand():
		err = status(ctx, stdout, cfg, logger, *statusJobID)
	case cancelCmd.FullCommand():
		err = slurmctl.Default().Cancel(ctx, *cancelJobID)
	case serveCmd.FullCommand():
		addr := cfg.Server.Listen
		if *serveAddr != "" {
			addr = *serveAddr
		}
		err = serve(ctx, cfg, logger, addr, *serveShutdownTimeout)
	}
	if err != nil {
		logger.Error(cmd+" failed", "err", err)
		return 1
	}
	return 0
}

func render(w io.Writer, cfg *config.Config, directivesOnly bool) error {
	if directivesOnly {
		for _, d := range cfg.Job.Resources.Directives() {
			if _, err := fmt.Fprintln(w, d); err != nil {
				return err
			}
		}
		return nil
	}
	script, err := batch.Render(cfg.Job)
	if err != nil {
		return err
	}
	_, err = w.Write(script)
	return err
}

type submitOptions struct {
	dryRun      bool
	preflight   bool
	checkConfig bool
	extraArgs   []string
}

func submit(ctx context.Context, w io.Writer, cfg *config.Config, opts submitOptions) error {
	script, err := batch.Render(cfg.Job)
	if err != nil {
		return err
	}
	if opts.preflight {
		if err := launcher.Preflight(ctx, slurmctl.Default(), cfg.Job, opts.checkConfig); err != nil {
			return fmt.Errorf("preflight: %w", err)
		}
	}
	if opts.dryRun {
		_, err := w.Write(script)
		return err
	}
	sub, err := slurmctl.Default().Submit(ctx, script, opts.extraArgs...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, sub.JobID)
	return err
}

func status(ctx context.Context, w io.Writer, cfg *config.Config, logger *slog.Logger, jobid string) error {
	var result any
	job, err := slurmctl.Default().GetJob(ctx, jobid)
	switch {
	case err == nil:
		steps, err := slurmctl.Default().GetStepsOfJob(ctx, jobid)
		if err != nil {
			return err
		}
		result = map[string]any{"source": "scheduling", "job": job, "steps": steps}
	case errors.Is(err, slurmctl.ErrJobNotQueued) && cfg.Server.Slurmdb.Enabled():
		id, perr := strconv.ParseUint(jobid, 10, 32)
		if perr != nil {
			return fmt.Errorf("invalid job id %q", jobid)
		}
		db, err := slurmdbc.New(cfg.Server.Slurmdb, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		rec, err := db.GetJob(ctx, uint32(id))
		if err != nil {
			return err
		}
		result = map[string]any{"source": "accounting", "job": rec.View()}
	default:
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// newLogger builds the process logger: promslog handles level and format,
// the output is stdout, stderr or an appended file.
func newLogger(logOutput, logFile string, cfg *promslog.Config) (*slog.Logger, func(), error) {
	var closer io.Closer
	switch logOutput {
	case "stderr", "":
		cfg.Writer = os.Stderr
	case "stdout":
		cfg.Writer = os.Stdout
	case "file":
		if logFile == "" {
			return nil, nil, fmt.Errorf("--log-file is required when --log-output=file")
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		cfg.Writer = f
		closer = f
	default:
		return nil, nil, fmt.Errorf("unsupported log output: %s", logOutput)
	}

	logger := promslog.New(cfg)
	slog.SetDefault(logger)
	cleanup := func() {
		if closer != nil {
			_ = closer.Close()
		}
	}
	return logger, cleanup, nil
}
