package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"wagevo/internal/app/server"
	"wagevo/internal/domain/auth"
	"wagevo/internal/domain/earnings"
	"wagevo/internal/domain/shift"
	"wagevo/internal/export"
	"wagevo/internal/platform/jobs"
)

const dateLayout = "2006-01-02"

func runClockIn(ctx context.Context, e *env, args []string) error {
	fs := subcommand(e, "in")
	if err := fs.Parse(args); err != nil {
		return err
	}
	at := now()
	id, err := e.store.ClockIn(ctx, at)
	if errors.Is(err, shift.ErrAlreadyClockedIn) {
		return fmt.Errorf("already clocked in; run \"wagectl out\" first")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Clocked in at %s (shift %s)\n", at.In(location(e.cfg)).Format("15:04"), id)
	return nil
}

func runClockOut(ctx context.Context, e *env, args []string) error {
	fs := subcommand(e, "out")
	if err := fs.Parse(args); err != nil {
		return err
	}
	closed, err := e.store.ClockOut(ctx, now())
	if errors.Is(err, shift.ErrNoActiveShift) {
		return fmt.Errorf("not clocked in")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Clocked out. Worked %s, earned %s\n",
		shift.FormatDuration(closed.Elapsed()),
		earnings.CurrencyString(earnings.ShiftEarnings(closed, e.cfg.WageRate)))
	return nil
}

func runStatus(ctx context.Context, e *env, args []string) error {
	fs := subcommand(e, "status")
	watch := fs.Bool("watch", false, "Keep updating while the shift runs (terminal only)")
	interval := fs.Duration("interval", time.Second, "Refresh interval for -watch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	active, ok, err := e.store.ActiveShift(ctx, now())
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(e.stdout, "Not clocked in")
		return nil
	}

	line := func(elapsed time.Duration) string {
		earned := elapsed.Hours() * e.cfg.WageRate
		return fmt.Sprintf("On the clock %s  %s", shift.FormatElapsed(elapsed), earnings.CurrencyString(earned))
	}
	if !*watch || !isTerminal(e.stdout) {
		fmt.Fprintln(e.stdout, line(active.Elapsed))
		return nil
	}

	shift.Ticker(ctx, *interval, active.Shift.StartTime, now, func(elapsed time.Duration) {
		fmt.Fprintf(e.stdout, "\r%s", line(elapsed))
	})
	fmt.Fprintln(e.stdout)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runHistory(ctx context.Context, e *env, args []string) error {
	fs := subcommand(e, "history")
	order := fs.String("sort", string(shift.SortDateDesc), "Sort order: dateDesc, dateAsc or none")
	limit := fs.Int("limit", 0, "Show at most this many shifts (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	shifts, err := loadShifts(ctx, e)
	if err != nil {
		return err
	}
	if len(shifts) == 0 {
		fmt.Fprintln(e.stdout, "No shifts recorded")
		return nil
	}
	shifts = shift.SortShifts(shifts, shift.ParseSortOrder(*order))
	if *limit > 0 && len(shifts) > *limit {
		shifts = shifts[:*limit]
	}

	loc := location(e.cfg)
	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSTART\tEND\tWORKED\tEARNED")
	for _, s := range shifts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.StartTime.In(loc).Format("Mon Jan 2"),
			s.StartTime.In(loc).Format("15:04"),
			s.EndTime.In(loc).Format("15:04"),
			shift.FormatHours(s.Hours()),
			earnings.CurrencyString(earnings.ShiftEarnings(s, e.cfg.WageRate)))
	}
	return tw.Flush()
}

func runDelete(ctx context.Context, e *env, args []string) error {
	fs := subcommand(e, "delete")
	id := fs.String("id", "", "Shift id to delete")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*id) == "" {
		return fmt.Errorf("-id is required")
	}
	if !*yes && !confirm(e.stdin, e.stdout, fmt.Sprintf("Delete shift %s?", *id)) {
		fmt.Fprintln(e.stdout, "Aborted")
		return nil
	}
	if err := e.store.DeleteShift(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Deleted shift %s\n", *id)
	return nil
}

func runExpense(ctx context.Context, e *env, args []string) error {
	fs := subcommand(e, "expense")
	amount := fs.Float64("amount", -1, "Amount spent or received")
	date := fs.String("date", "", "Date of the expense (YYYY-MM-DD, default today)")
	income := fs.Bool("income", false, "Record income instead of spending")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *amount < 0 {
		return fmt.Errorf("-amount must be a non-negative number")
	}
	expense := shift.Expense{Amount: *amount, IsIncome: *income}
	if *date != "" {
		parsed, err := time.ParseInLocation(dateLayout, *date, location(e.cfg))
		if err != nil {
			return fmt.Errorf("-date must be YYYY-MM-DD")
		}
		expense.Date = parsed
	}
	saved, err := e.store.AddExpense(ctx, expense)
	if err != nil {
		return err
	}
	kind := "expense"
	if saved.IsIncome {
		kind = "income"
	}
	fmt.Fprintf(e.stdout, "Recorded %s of %s on %s\n", kind, earnings.CurrencyString(saved.Amount), saved.Date.In(location(e.cfg)).Format(dateLayout))
	return nil
}

func runSummary(ctx context.Context, e *env, args []string) error {
	fs := subcommand(e, "summary")
	asOfRaw := fs.String("as-of", "", "Compute as of the end of this date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	loc := location(e.cfg)
	asOf := now()
	if *asOfRaw != "" {
		day, err := time.ParseInLocation(dateLayout, *asOfRaw, loc)
		if err != nil {
			return fmt.Errorf("-as-of must be YYYY-MM-DD")
		}
		asOf = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	shifts, err := loadShifts(ctx, e)
	if err != nil {
		return err
	}
	expenses, err := e.store.ListExpenses(ctx)
	if err != nil {
		if !errors.Is(err, shift.ErrStorageCorrupt) {
			return err
		}
		fmt.Fprintf(e.stderr, "Warning: %v\n", err)
	}
	sum := earnings.Summarize(earnings.Snapshot{Shifts: shifts, Expenses: expenses}, server.Policy(e.cfg), asOf, loc)

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "This week\t%s\n", sum.Display.ThisWeek)
	fmt.Fprintf(tw, "Last 7 days\t%s\n", sum.Display.Last7Days)
	fmt.Fprintf(tw, "Year to date\t%s\n", sum.Display.YearToDate)
	fmt.Fprintf(tw, "Available balance\t%s\n", sum.Display.AvailableBalance)
	fmt.Fprintf(tw, "Withheld (%.0f%%)\t%s\n", sum.Policy.WithholdingPercent, sum.Display.Withheld)
	fmt.Fprintf(tw, "Overtime this week\t%s (%s)\n", shift.FormatHours(sum.OvertimeHours), earnings.CurrencyString(sum.OvertimePay))
	fmt.Fprintf(tw, "Shifts\t%d, averaging %s\n", sum.ShiftCount, shift.FormatHours(sum.AverageShiftHours))
	return tw.Flush()
}

func runExport(ctx context.Context, e *env, args []string) error {
	fs := subcommand(e, "export")
	format := fs.String("format", "csv", "Output format: csv or pdf")
	out := fs.String("o", "", "Write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	shifts, err := loadShifts(ctx, e)
	if err != nil {
		return err
	}
	rows := export.Rows(shift.SortShifts(shifts, shift.SortDateAsc), e.cfg.WageRate, location(e.cfg))

	var buf bytes.Buffer
	switch strings.ToLower(*format) {
	case "csv":
		err = export.WriteCSV(&buf, rows)
	case "pdf":
		if *out == "" && isTerminal(e.stdout) {
			return fmt.Errorf("refusing to write PDF to a terminal; use -o")
		}
		err = export.WritePDF(&buf, rows)
	default:
		return fmt.Errorf("-format must be csv or pdf")
	}
	if err != nil {
		return err
	}

	if *out == "" {
		_, err = e.stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o600); err != nil {
		return err
	}
	fmt.Fprintf(e.stderr, "Wrote %d shifts to %s\n", len(rows), *out)
	return nil
}

func runToken(_ context.Context, e *env, args []string) error {
	fs := subcommand(e, "token")
	user := fs.String("user", e.cfg.DefaultOwnerID, "Worker id the token acts for")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(e.cfg.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to issue tokens")
	}
	if strings.TrimSpace(*user) == "" {
		return fmt.Errorf("-user is required")
	}
	if *ttl <= 0 {
		return fmt.Errorf("-ttl must be positive")
	}
	token, err := auth.GenerateToken(e.cfg.JWTSecret, *user, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, token)
	return nil
}

func runCompact(ctx context.Context, e *env, args []string) error {
	fs := subcommand(e, "compact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	svc := jobs.New(e.db, 0)
	details, err := svc.RunNow(ctx, jobs.JobCompaction, svc.Compact)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Compaction finished: %v\n", details)
	return nil
}

// loadShifts reports undecodable history on stderr and carries on with what
// could be read.
func loadShifts(ctx context.Context, e *env) ([]shift.Shift, error) {
	shifts, err := e.store.ListShifts(ctx)
	if err != nil {
		if !errors.Is(err, shift.ErrStorageCorrupt) {
			return nil, err
		}
		fmt.Fprintf(e.stderr, "Warning: %v\n", err)
	}
	return shifts, nil
}
