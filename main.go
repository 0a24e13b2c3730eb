package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kapitanov/chip8/internal/hal"
	"github.com/kapitanov/chip8/internal/vm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
		Short:         "Run emulator",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cfg := vm.DefaultConfig()
	bindFlags(cmd.Flags(), &cfg)
	verbose := cmd.Flags().BoolP("verbose", "v", false, "enable verbose logging")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		loggerOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if *verbose {
			loggerOpts.Level = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, loggerOpts))
		slog.SetDefault(logger)

		if *verbose {
			cfg.Tracer = vm.LogTracer(logger)
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid options: %w", err)
		}

		path := args[0]
		bs, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to load file %q: %w", path, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, bs, cfg)
	}

	cmd.SetArgs(os.Args[1:])
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func bindFlags(fs *pflag.FlagSet, cfg *vm.Config) {
	fs.IntVar(&cfg.Width, "width", cfg.Width, "logical screen width in pixels")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "logical screen height in pixels")
	fs.IntVarP(&cfg.Scale, "scale", "s", cfg.Scale, "window pixels per screen pixel")
	fs.Var(&cfg.Foreground, "fg", "foreground color (RRGGBB or RRGGBBAA)")
	fs.Var(&cfg.Background, "bg", "background color (RRGGBB or RRGGBBAA)")
	fs.BoolVar(&cfg.PixelOutlines, "outlines", cfg.PixelOutlines, "draw pixel outlines")
	fs.IntVar(&cfg.FrameRate, "rate", cfg.FrameRate, "frame, timer and pacing rate in Hz")
	fs.IntVar(&cfg.InstructionsPerFrame, "ipf", cfg.InstructionsPerFrame, "instructions executed per frame")
	fs.BoolVar(&cfg.Strict, "strict", cfg.Strict, "treat unsupported opcodes as fatal")
}

func run(ctx context.Context, program []byte, cfg vm.Config) error {
	machine, err := vm.New(program, cfg)
	if err != nil {
		return fmt.Errorf("unable to load program: %w", err)
	}

	h, err := hal.New(cfg)
	if err != nil {
		return fmt.Errorf("unable to initialize hal: %w", err)
	}
	defer h.Shutdown()

	for {
		err = machine.Run(ctx, h)
		if !errors.Is(err, hal.ErrReboot) {
			return err
		}

		slog.Info("reboot")
		if machine, err = vm.New(program, cfg); err != nil {
			return fmt.Errorf("unable to load program: %w", err)
		}
	}
}
