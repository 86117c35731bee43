package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/skucast/forecasting-service/internal/config"
	"github.com/skucast/forecasting-service/internal/domain"
	"github.com/skucast/forecasting-service/internal/forecast"
	"github.com/skucast/forecasting-service/internal/monitor"
	"github.com/skucast/forecasting-service/internal/validator"
)

func newHistoryFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "history",
		Usage:    "Path to a CSV sales history (date,quantity per row)",
		Required: true,
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "forecastctl",
		Usage: "Run the forecasting pipeline from the command line",
		Commands: []*cli.Command{
			{
				Name:  "forecast",
				Usage: "Produce a reorder recommendation from a CSV sales history",
				Flags: []cli.Flag{
					newHistoryFlag(),
					&cli.StringFlag{Name: "sku", Usage: "Product SKU", Value: "CLI-SKU"},
					&cli.IntFlag{Name: "stock", Usage: "Current stock level", Required: true},
					&cli.IntFlag{Name: "lead-time", Usage: "Supplier lead time in days", Value: 7},
					&cli.IntFlag{Name: "days", Usage: "Forecast horizon in days", Value: 7},
				},
				Action: runForecast,
			},
			{
				Name:  "inspect",
				Usage: "Validate a CSV sales history and report quality and anomalies",
				Flags: []cli.Flag{
					newHistoryFlag(),
				},
				Action: runInspect,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runForecast(c *cli.Context) error {
	history, err := readHistory(c.String("history"))
	if err != nil {
		return err
	}

	mon := monitor.NewPerformanceMonitor(monitor.DefaultHistorySize)
	processor := forecast.NewProcessor(
		validator.NewSeriesValidator(),
		forecast.NewSmoothingForecaster(),
		forecast.NewSeasonalNaiveForecaster(),
		mon,
		config.ForecastConfig{BatchWorkers: 1},
	)

	resp := processor.Forecast(c.Context, domain.ForecastRequest{
		UserID:       "forecastctl",
		SKU:          c.String("sku"),
		SalesHistory: history,
		CurrentStock: c.Int("stock"),
		LeadTimeDays: c.Int("lead-time"),
		ForecastDays: c.Int("days"),
	})

	if err := printJSON(resp); err != nil {
		return err
	}
	return printJSON(mon.Summarize(24))
}

func runInspect(c *cli.Context) error {
	history, err := readHistory(c.String("history"))
	if err != nil {
		return err
	}

	v := validator.NewSeriesValidator()
	result, records := v.Validate(history)
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.IsValid {
		return nil
	}
	return printJSON(v.DetectAnomalies(records))
}

// readHistory parses a two-column CSV of date,quantity rows. A header
// row is skipped when the quantity column does not parse.
func readHistory(path string) ([]domain.SalesDataPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	var points []domain.SalesDataPoint
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed reading %s: %w", path, err)
		}
		line++

		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected date,quantity", line)
		}
		qty, err := strconv.Atoi(record[1])
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid quantity %q", line, record[1])
		}
		points = append(points, domain.SalesDataPoint{Date: record[0], QuantitySold: qty})
	}
	return points, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
