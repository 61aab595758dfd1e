package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"boxyledger/internal/backend"
	"boxyledger/internal/cache"
	"boxyledger/internal/cli"
	"boxyledger/internal/core"
	"boxyledger/internal/log"
	"boxyledger/internal/services"
	"boxyledger/internal/views"
)

const usage = `Usage: boxyledger <command> [flags]

Commands:
  accounts     list accounts with balances
  add          record an expense or income
  delete       delete a record by id
  repay        repay a credit account from a payment account
  rename-type  rename an account type group
  summary      monthly income/expense summary
  calendar     per-day totals for a month
  seed         install default categories and accounts
  watch        stream live overview snapshots until interrupted
`

type app struct {
	logger     *log.Logger
	ledger     *services.LedgerService
	accounts   *services.AccountService
	categories *services.CategoryService
	loc        *time.Location
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("BOXY_LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err)
		os.Exit(1)
	}

	res := cli.InitStore(logger, cfg)
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", log.FieldError, err)
			}
		}
	}()

	locks := services.NewAccountLocks()
	a := &app{
		logger:     logger,
		ledger:     services.NewLedgerService(res.Store, locks),
		accounts:   services.NewAccountService(res.Store, locks),
		categories: services.NewCategoryService(res.Store),
		loc:        loc,
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "accounts":
		err = a.runAccounts(ctx)
	case "add":
		err = a.runAdd(ctx, os.Args[2:])
	case "delete":
		err = a.runDelete(ctx, os.Args[2:])
	case "repay":
		err = a.runRepay(ctx, os.Args[2:])
	case "rename-type":
		err = a.runRenameType(ctx, os.Args[2:])
	case "summary":
		err = a.runSummary(ctx, os.Args[2:])
	case "calendar":
		err = a.runCalendar(ctx, os.Args[2:])
	case "seed":
		err = a.runSeed(ctx)
	case "watch":
		err = a.runWatch(res, cfg.CacheCleanupInterval)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", "command", os.Args[1], log.FieldError, err)
		os.Exit(1)
	}
}

func (a *app) runAccounts(ctx context.Context) error {
	accounts, err := a.accounts.List(ctx)
	if err != nil {
		return err
	}
	for _, acc := range accounts {
		marker := " "
		if acc.IsCredit {
			marker = "C"
		}
		fmt.Printf("%6d %s %-12s %-10s %12s\n", acc.ID, marker, acc.Name, acc.Type, acc.Balance.Format())
	}
	fmt.Printf("\nnet assets: %s  liabilities: %s\n",
		core.NetAssets(accounts).Format(), core.Liabilities(accounts).Format())
	return nil
}

func (a *app) runAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	amount := fs.String("amount", "", "amount, e.g. 12.50")
	kind := fs.String("type", "expense", "expense or income")
	category := fs.String("category", "", "category name")
	account := fs.Int64("account", 0, "account id")
	note := fs.String("note", "", "free-form note")
	discount := fs.String("discount", "", "discount amount")
	date := fs.String("date", "", "date as 2006-01-02, default today")
	recordID := fs.Int64("id", 0, "record id to edit")
	fs.Parse(args)

	draft := services.RecordDraft{
		ID:          *recordID,
		AmountInput: *amount,
		Category:    *category,
		AccountID:   *account,
		Note:        *note,
	}
	switch *kind {
	case "expense":
		draft.Type = core.Expense
	case "income":
		draft.Type = core.Income
	default:
		return fmt.Errorf("unknown record type %q", *kind)
	}
	if *date != "" {
		d, err := time.ParseInLocation("2006-01-02", *date, a.loc)
		if err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
		draft.Date = d
	}
	if *discount != "" {
		d, err := core.ParseAmount(*discount)
		if err != nil {
			return fmt.Errorf("parse discount: %w", err)
		}
		draft.Discount = d
	}

	rec, err := a.ledger.Save(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Printf("saved record %d: %s %s %s\n", rec.ID, rec.Type, rec.Amount.Format(), rec.Category)
	if note := core.ComposeNote(rec.Note, rec.Discount); note != "" {
		fmt.Printf("note: %s\n", note)
	}
	return nil
}

func (a *app) runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "record id")
	fs.Parse(args)

	rec, err := a.ledger.Record(ctx, *id)
	if err != nil {
		return err
	}
	return a.ledger.Delete(ctx, rec)
}

func (a *app) runRepay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("repay", flag.ExitOnError)
	credit := fs.Int64("credit", 0, "credit account id")
	payment := fs.Int64("payment", 0, "payment account id")
	amount := fs.String("amount", "", "amount, empty for the full debt")
	fs.Parse(args)

	var sum core.Money
	if *amount == "" {
		acc, err := a.accounts.Get(ctx, *credit)
		if err != nil {
			return err
		}
		sum = a.accounts.DefaultRepayment(acc)
	} else {
		var err error
		sum, err = core.ParseAmount(*amount)
		if err != nil {
			return err
		}
	}
	return a.accounts.Repay(ctx, *credit, *payment, sum)
}

func (a *app) runRenameType(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rename-type", flag.ExitOnError)
	oldType := fs.String("old", "", "current type name")
	newType := fs.String("new", "", "new type name")
	fs.Parse(args)

	return a.accounts.RenameType(ctx, *oldType, *newType)
}

func (a *app) runSummary(ctx context.Context, args []string) error {
	year, month, err := monthFlags(args, a.loc)
	if err != nil {
		return err
	}
	from, to := core.MonthRange(year, month, a.loc)
	records, err := a.ledger.RecordsByRange(ctx, from, to)
	if err != nil {
		return err
	}
	ov := core.NewMonthOverview(year, month, a.loc, records)
	fmt.Printf("%d-%02d  income %s  expense %s  net %s\n",
		ov.Year, ov.Month, ov.Totals.Income.Format(), ov.Totals.Expense.Format(), ov.Totals.Net().Format())
	return nil
}

func (a *app) runCalendar(ctx context.Context, args []string) error {
	year, month, err := monthFlags(args, a.loc)
	if err != nil {
		return err
	}
	from, to := core.MonthRange(year, month, a.loc)
	records, err := a.ledger.RecordsByRange(ctx, from, to)
	if err != nil {
		return err
	}
	ov := core.NewMonthOverview(year, month, a.loc, records)
	for _, day := range core.CalendarMonth(ov, a.loc) {
		if day.Totals.Income.IsZero() && day.Totals.Expense.IsZero() {
			continue
		}
		fmt.Printf("%d-%02d-%02d  +%s  -%s\n",
			year, month, day.Day, day.Totals.Income.Format(), day.Totals.Expense.Format())
	}
	return nil
}

func (a *app) runSeed(ctx context.Context) error {
	if err := a.categories.SeedDefaults(ctx); err != nil {
		return err
	}
	return a.accounts.SeedDefaults(ctx)
}

func (a *app) runWatch(res *backend.Result, cleanupInterval time.Duration) error {
	mgr := cache.NewManager()
	icons := views.NewIconResolver(res.Store, mgr)
	mgr.StartCleanup(cleanupInterval)
	defer mgr.Stop()

	view := views.NewLedgerView(res.Store, res.Watcher, icons, a.loc)

	ctx, done := cli.GracefulShutdown(a.logger, 10*time.Second, nil)
	go func() {
		for ov := range view.Updates() {
			fmt.Printf("records=%d  today: +%s -%s  month net %s  assets %s\n",
				len(ov.Records), ov.Today.Income.Format(), ov.Today.Expense.Format(),
				ov.Month.Totals.Net().Format(), ov.NetAssets.Format())
			for i, rec := range ov.Records {
				if i == 3 {
					break
				}
				fmt.Printf("  [%s] %s %s %s  %s\n",
					ov.Icon(rec.Category, rec.Type), rec.Category, rec.Type,
					rec.Amount.Format(), core.ComposeNote(rec.Note, rec.Discount))
			}
		}
	}()

	err := view.Run(ctx)
	cli.WaitForShutdown(ctx, done)
	return err
}

func monthFlags(args []string, loc *time.Location) (int, time.Month, error) {
	now := time.Now().In(loc)
	fs := flag.NewFlagSet("month", flag.ExitOnError)
	year := fs.Int("year", now.Year(), "year")
	month := fs.Int("month", int(now.Month()), "month 1-12")
	fs.Parse(args)

	if *month < 1 || *month > 12 {
		return 0, 0, fmt.Errorf("month %d out of range", *month)
	}
	return *year, time.Month(*month), nil
}
