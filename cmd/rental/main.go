// Command rental is the operator console for the rental engine. Each
// invocation runs one command against the configured stores and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fleet-rental-backend/internal/app"
	"fleet-rental-backend/internal/config"
	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/logger"
)

const usage = `usage: rental [-config path] <command> [args]

commands:
  addclient
  reserve <from> <to> <client_id> <class>
  rentall <date> <client_id>
  returncar <car_id> <date_out> <date_returned> <date_expected>
  deletereservation <from> <to> <client_id> <rental_id> <class>
  initialize [window_days]
  classes <date>
  history <car_id> [open]
  cars

dates are YYYY-MM-DD
`

var errUsage = errors.New("invalid arguments")

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// stdout carries command output
	logger.InitializeWithWriter(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	a, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Error("Failed to build rental engine", "error", err)
		log.Fatalf("Failed to build rental engine: %v", err)
	}

	err = run(ctx, a, flag.Args(), os.Stdout)
	a.Close()
	if errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	cmd, args := args[0], args[1:]
	switch cmd {
	case "addclient":
		fmt.Fprintln(out, uuid.New())
		return nil

	case "reserve":
		if len(args) != 4 {
			return fmt.Errorf("%w: reserve takes 4 arguments", errUsage)
		}
		from, to, err := parseDays(args[0], args[1])
		if err != nil {
			return err
		}
		renterID, err := parseUUID("client_id", args[2])
		if err != nil {
			return err
		}
		rentalID, err := a.Rental.Reserve(ctx, from, renterID, to, domain.CarClass(args[3]))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, rentalID)
		return nil

	case "rentall":
		if len(args) != 2 {
			return fmt.Errorf("%w: rentall takes 2 arguments", errUsage)
		}
		date, err := domain.ParseDay(args[0])
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		renterID, err := parseUUID("client_id", args[1])
		if err != nil {
			return err
		}
		cars, err := a.Rental.FulfillForClient(ctx, date, renterID)
		for _, car := range cars {
			fmt.Fprintln(out, car)
		}
		return err

	case "returncar":
		if len(args) != 4 {
			return fmt.Errorf("%w: returncar takes 4 arguments", errUsage)
		}
		carID, err := parseCarID(args[0])
		if err != nil {
			return err
		}
		days := make([]time.Time, 3)
		for i, raw := range args[1:] {
			if days[i], err = domain.ParseDay(raw); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
		}
		return a.Rental.ReturnCar(ctx, carID, days[0], days[1], days[2])

	case "deletereservation":
		if len(args) != 5 {
			return fmt.Errorf("%w: deletereservation takes 5 arguments", errUsage)
		}
		from, to, err := parseDays(args[0], args[1])
		if err != nil {
			return err
		}
		renterID, err := parseUUID("client_id", args[2])
		if err != nil {
			return err
		}
		rentalID, err := parseUUID("rental_id", args[3])
		if err != nil {
			return err
		}
		return a.Rental.CancelReservation(ctx, from, renterID, rentalID, to, domain.CarClass(args[4]))

	case "initialize":
		window := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("%w: window_days must be a positive number", errUsage)
			}
			window = n
		}
		return a.Rental.Initialize(ctx, window)

	case "classes":
		if len(args) != 1 {
			return fmt.Errorf("%w: classes takes 1 argument", errUsage)
		}
		date, err := domain.ParseDay(args[0])
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		classes, err := a.Rental.AvailableClasses(ctx, date)
		if err != nil {
			return err
		}
		for _, c := range classes {
			fmt.Fprintln(out, c)
		}
		return nil

	case "history":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("%w: history takes 1 or 2 arguments", errUsage)
		}
		carID, err := parseCarID(args[0])
		if err != nil {
			return err
		}
		openOnly := len(args) == 2 && args[1] == "open"
		records, err := a.Rental.CarHistory(ctx, carID, openOnly)
		if err != nil {
			return err
		}
		for _, r := range records {
			received := "-"
			if r.DateReceived != nil {
				received = domain.FormatDay(*r.DateReceived)
			}
			fmt.Fprintf(out, "%d %s %s %s %s %s\n", r.CarID, domain.FormatDay(r.DateFrom), domain.FormatDay(r.DateTo),
				r.RenterID, r.RentalID, received)
		}
		return nil

	case "cars":
		for _, car := range a.Catalog.Cars() {
			fmt.Fprintln(out, car)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func parseDays(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from, err := domain.ParseDay(fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	to, err := domain.ParseDay(toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	return from, to, nil
}

func parseUUID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", errUsage, field)
	}
	return id, nil
}

func parseCarID(raw string) (int32, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: car_id must be a number", errUsage)
	}
	return int32(n), nil
}
