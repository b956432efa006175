package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/radarip/radarip/internal/credentials"
	"github.com/radarip/radarip/internal/radar"
	"github.com/spf13/cobra"
)

type scanFlags struct {
	targetMAC   string
	cidr        string
	keyFile     string
	password    string
	username    string
	timeoutSec  int
	port        int
	profile     string
	transport   string
	concurrency int
	deadline    time.Duration
}

func newScanCmd(a *app) *cobra.Command {
	f := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Search a range for a MAC address and print the matching IP",
		Example: "  radarip scan -m aa:bb:cc:dd:ee:ff -r 192.168.1.0/24 -p secret\n" +
			"  radarip scan -m aa:bb:cc:dd:ee:ff --profile AI3",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScan(ctx, a, f, cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.targetMAC, "target-mac", "m", "", "MAC address to look for (required)")
	flags.StringVarP(&f.cidr, "range", "r", "", "IPv4 range in CIDR notation, e.g. 192.168.1.0/24")
	flags.StringVarP(&f.keyFile, "key", "k", "", "path to a private key file")
	flags.StringVarP(&f.password, "password", "p", "", "password, or the key passphrase when a key is used")
	flags.StringVarP(&f.username, "user", "u", "", "login user (default root, or the profile's user)")
	flags.IntVar(&f.timeoutSec, "timeout-sec", 0, "per-host connect timeout in seconds (default 5)")
	flags.IntVar(&f.port, "port", 0, "port to connect to (default depends on the transport)")
	flags.StringVar(&f.profile, "profile", "", "device profile supplying range, user and key")
	flags.StringVar(&f.transport, "transport", "", "transport: ssh, openssh, winrm or snmp")
	flags.IntVar(&f.concurrency, "concurrency", 0, "maximum hosts probed at once (default 50)")
	flags.DurationVar(&f.deadline, "deadline", 0, "abandon the scan after this long (default 15s)")
	cmd.MarkFlagRequired("target-mac")

	return cmd
}

func (f *scanFlags) request() radar.Request {
	return radar.Request{
		TargetMAC:   f.targetMAC,
		Range:       f.cidr,
		Profile:     f.profile,
		Username:    f.username,
		Password:    f.password,
		KeyFile:     f.keyFile,
		Port:        f.port,
		Transport:   f.transport,
		TimeoutMS:   f.timeoutSec * 1000,
		Concurrency: f.concurrency,
		DeadlineMS:  int(f.deadline / time.Millisecond),
	}
}

func runScan(ctx context.Context, a *app, f *scanFlags, cmd *cobra.Command) error {
	planner := radar.NewPlanner(a.cfg, credentials.NewService(), a.logger)

	plan, err := planner.Plan(f.request())
	if err != nil {
		return err
	}

	start := time.Now()
	ip, err := plan.Scanner.Scan(ctx, plan.TargetMAC, plan.Range)
	a.logger.Debug("Scan finished",
		slog.String("range", plan.Range),
		slog.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ip)
	return nil
}
