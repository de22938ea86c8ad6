package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Ishwarya142/plantiq/internal/analysis"
	"github.com/Ishwarya142/plantiq/internal/objectstore"
	"github.com/Ishwarya142/plantiq/internal/plantapi"
	"github.com/Ishwarya142/plantiq/internal/queue"
	"github.com/Ishwarya142/plantiq/pkg/models"
	"github.com/spf13/cobra"
)

const (
	defaultBaseURL = "http://localhost:8080"
	maxImageBytes  = objectstore.MaxImageBytes
)

type globalOptions struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

func (o *globalOptions) client() *plantapi.HTTPClient {
	return plantapi.NewHTTPClient(o.baseURL, o.apiKey, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "plantiq",
		Short:         "PlantIQ AI plant care assistant",
		Long:          "plantiq asks the PlantIQ server for plant analyses and photo identifications.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", envOr("PLANTIQ_BASE_URL", defaultBaseURL), "PlantIQ server URL")
	flags.StringVar(&opts.apiKey, "api-key", os.Getenv("PLANTIQ_API_KEY"), "Bearer key sent with every request")
	flags.DurationVar(&opts.timeout, "timeout", 90*time.Second, "Per-request timeout")

	root.AddCommand(
		newAnalyzeCommand(opts),
		newIdentifyCommand(opts),
		newReadyCommand(opts),
	)
	return root
}

func newAnalyzeCommand(opts *globalOptions) *cobra.Command {
	var (
		plant        models.PlantData
		soil         float64
		forecastFile string
	)

	cmd := &cobra.Command{
		Use:       "analyze <growth-prediction|care-recommendation|health-analysis|daily-insight>",
		Short:     "Run one AI analysis for a plant",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseAnalysisKind(args[0])
			if err != nil {
				return err
			}
			if plant.Name == "" {
				return errors.New("--name is required")
			}
			if cmd.Flags().Changed("soil") {
				plant.Environment.SoilMoisture = &soil
			}

			var forecast []models.WeatherForecast
			if forecastFile != "" {
				if forecast, err = readForecast(forecastFile); err != nil {
					return err
				}
			}

			client := analysis.NewClient(opts.client(),
				analysis.WithQueue(queue.New(0)),
				analysis.WithNotifier(stderrNotifier(cmd.ErrOrStderr())),
			)
			defer client.Close(context.Background())

			result, err := client.Request(cmd.Context(), kind, plant, forecast)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}
			if result == nil {
				return errors.New("analysis returned no result")
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&plant.Name, "name", "", "Plant name")
	f.StringVar(&plant.Species, "species", "", "Plant species")
	f.BoolVar(&plant.IsOutdoor, "outdoor", false, "The plant grows outdoors")
	f.IntVar(&plant.HealthScore, "health", 75, "Health score, 0-100")
	f.Float64Var(&plant.Environment.Temperature, "temperature", 22, "Temperature in °C")
	f.Float64Var(&plant.Environment.Humidity, "humidity", 50, "Relative humidity in %")
	f.Float64Var(&plant.Environment.Light, "light", 60, "Light level in %")
	f.Float64Var(&soil, "soil", 50, "Soil moisture in %")
	f.StringVar(&forecastFile, "forecast", "", "JSON file holding a weather forecast array")

	return cmd
}

func newIdentifyCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <image-file>",
		Short: "Identify a plant from a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataURL, err := imageDataURL(args[0])
			if err != nil {
				return err
			}

			resp, err := opts.client().Identify(cmd.Context(), models.IdentifyRequest{ImageBase64: dataURL})
			if err != nil {
				return fmt.Errorf("identify: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), resp.Result)
		},
	}
}

func newReadyCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.client().Ready(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func stderrNotifier(w io.Writer) analysis.Notifier {
	return analysis.NotifierFunc(func(n analysis.Notice) {
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
	})
}

func readForecast(path string) ([]models.WeatherForecast, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read forecast: %w", err)
	}
	var forecast []models.WeatherForecast
	if err := json.Unmarshal(b, &forecast); err != nil {
		return nil, fmt.Errorf("parse forecast %s: %w", path, err)
	}
	return forecast, nil
}

// imageDataURL reads an image file into a base64 data URL.
func imageDataURL(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(b) > maxImageBytes {
		return "", fmt.Errorf("image %s exceeds 10 MiB", path)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("image %s is empty", path)
	}
	return "data:" + http.DetectContentType(b) + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		_, err = w.Write(append(raw, '\n'))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func kindNames() []string {
	names := make([]string, len(models.AnalysisKinds))
	for i, k := range models.AnalysisKinds {
		names[i] = string(k)
	}
	return names
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
