// Command portal-admin holds one-off operator tasks: hashing the admin
// password, printing the dashboard and exporting the revenue report.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"portalunk/internal/auth"
	"portalunk/internal/backend"
	"portalunk/internal/cli"
	"portalunk/internal/config"
	"portalunk/internal/dashboard"
	applog "portalunk/internal/log"
	"portalunk/internal/services"
)

const usage = `usage: portal-admin <command> [flags]

commands:
  hash-password [password]   print a bcrypt hash for ADMIN_PASSWORD_HASH (reads stdin without an argument)
  summary [-days N] [-months N]
                             print the dashboard summary as JSON
  export-report              write the revenue report once and print its reference
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "hash-password":
		err = hashPassword(os.Args[2:], os.Stdin, os.Stdout)
	case "summary":
		err = summary(os.Args[2:], os.Stdout)
	case "export-report":
		err = exportReport(os.Stdout)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "portal-admin:", err)
		os.Exit(1)
	}
}

func hashPassword(args []string, in io.Reader, out io.Writer) error {
	password := strings.Join(args, " ")
	if password == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return fmt.Errorf("password is empty")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

func summary(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	days := fs.Int("days", 0, "upcoming window in days (default UPCOMING_WINDOW_DAYS)")
	months := fs.Int("months", 0, "revenue chart length in months (default REVENUE_MONTHS)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withDashboard(func(ctx context.Context, _ *config.Config, dash *services.DashboardService) error {
		s, err := dash.Summary(ctx, dashboard.Options{UpcomingDays: *days, RevenueMonths: *months})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	})
}

func exportReport(out io.Writer) error {
	return withDashboard(func(ctx context.Context, cfg *config.Config, dash *services.DashboardService) error {
		writer, err := backend.NewReportWriter(ctx, cfg)
		if err != nil {
			return err
		}
		ref, err := services.NewReportProcessor(dash, writer, services.DefaultReportProcessorConfig()).ExportNow(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, ref)
		return err
	})
}

// withDashboard opens the configured backend for the duration of fn.
func withDashboard(fn func(context.Context, *config.Config, *services.DashboardService) error) error {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	// Logs go to stderr so command output stays machine readable.
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
		Format:    cfg.LogFormat,
		Output:    os.Stderr,
	})
	defer logger.Close()
	applog.SetDefault(logger)

	ctx := applog.NewContext(context.Background(), logger)
	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Close()

	dash := services.NewDashboardService(res.Stores, nil, dashboard.Options{
		UpcomingDays:  cfg.UpcomingWindowDays,
		RevenueMonths: cfg.RevenueMonths,
		TopGenres:     5,
	}, cfg.Location())
	return fn(ctx, cfg, dash)
}
