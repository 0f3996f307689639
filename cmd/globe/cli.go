package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/poseidonvest/globe/internal/api"
	"github.com/poseidonvest/globe/internal/config"
	"github.com/poseidonvest/globe/internal/dispatcher"
	"github.com/poseidonvest/globe/internal/logging"
	"github.com/poseidonvest/globe/internal/market"
	"github.com/poseidonvest/globe/internal/scene"
)

var Cmd = &cobra.Command{
	Use:          "globe",
	Long:         "Drive a 3D globe of financial centers, market sessions and economic events",
	SilenceUsage: true,
}

var args struct {
	configDir string
	at        string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the frame loop, reading host commands from stdin",
	Args:  cobra.NoArgs,
	RunE:  run,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print which financial centers are open",
	Args:  cobra.NoArgs,
	RunE:  status,
}

var layoutCmd = &cobra.Command{
	Use:   "layout <country>",
	Short: "Print the event cluster of a country as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  layout,
}

var fetchEventsCmd = &cobra.Command{
	Use:   "fetch-events",
	Short: "Download the economic calendar and replace the stored events",
	Args:  cobra.NoArgs,
	RunE:  fetchEvents,
}

func init() {
	Cmd.PersistentFlags().StringVar(&args.configDir, "config", ".", "directory containing "+config.FileName)
	statusCmd.Flags().StringVar(&args.at, "at", "", "evaluate at this RFC3339 instant instead of now")
	Cmd.AddCommand(runCmd, statusCmd, layoutCmd, fetchEventsCmd)
}

func run(cmd *cobra.Command, _ []string) (err error) {
	a := newApp(args.configDir)
	defer func() {
		if closeErr := a.close(); err == nil {
			err = closeErr
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hostCfg, err := config.GetHostConfig()
	if err != nil {
		return err
	}
	marketCfg, err := config.GetMarketConfig()
	if err != nil {
		return err
	}
	streamCfg := config.GetStreamConfig()

	book, err := a.openStorage(ctx)
	if err != nil {
		return err
	}

	// a nil *stream.Publisher must stay a nil interface
	var pub publisher
	if p := a.openStream(); p != nil {
		pub = p
	}

	sc, err := a.buildScene(newRenderHost(pub, a.logger))
	if err != nil {
		return err
	}
	sc.SetEvents(book)
	a.connectStream(sc)

	d, err := dispatcher.New(logging.NewDispatcherLogger(a.zerolog("dispatcher")))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	// runs before a.close so queued snapshots reach the sinks while they are open
	defer d.Close()

	l := newLoop(sc, d, hostCfg.InputQueueSize, pub, streamCfg.FrameEvery, a.logger)
	sinks := []statusSink{a.store}
	if m := a.openInflux(ctx); m != nil {
		sinks = append(sinks, m)
	}
	l.registerSinks(sinks...)

	go readInput(ctx, cmd.InOrStdin(), d, a.logger)

	return l.run(ctx, hostCfg.FrameRate, marketCfg.RefreshInterval)
}

func status(cmd *cobra.Command, _ []string) error {
	a := newApp(args.configDir)
	defer a.close()

	now := time.Now()
	if args.at != "" {
		t, err := time.Parse(time.RFC3339, args.at)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		now = t
	}

	regCfg, err := config.GetRegistryConfig()
	if err != nil {
		return err
	}
	reg, err := scene.NewRegistry(regCfg.Radius, regCfg.Centers, nil)
	if err != nil {
		return err
	}
	clock, err := market.NewClock(reg.Centers(), a.logger)
	if err != nil {
		return err
	}
	statusMap := clock.Tick(now)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CENTER\tTIMEZONE\tHOURS\tSTATE")
	for _, c := range clock.Centers() {
		state := "closed"
		if statusMap[c.Name] {
			state = "open"
		}
		fmt.Fprintf(w, "%s\t%s\t%s-%s\t%s\n", c.Name, c.Timezone, clockTime(c.OpenHour), clockTime(c.CloseHour), state)
	}
	return w.Flush()
}

func layout(cmd *cobra.Command, argv []string) error {
	a := newApp(args.configDir)
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	book, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	sc, err := a.buildScene(nil)
	if err != nil {
		return err
	}
	sc.SetEvents(book)

	name := argv[0]
	m, ok := sc.Registry().Lookup(name)
	if !ok {
		return fmt.Errorf("no marker named %q", name)
	}
	if m.Category() != scene.CategoryCountry {
		return fmt.Errorf("%q is a %s and has no event cluster", name, m.Category())
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sc.EventNodes(name))
}

func fetchEvents(cmd *cobra.Command, _ []string) error {
	a := newApp(args.configDir)
	defer a.close()

	apiCfg := config.GetAPIConfig()
	client := api.New(apiCfg.ServerURL, apiCfg.APIKey,
		api.WithTimeout(apiCfg.Timeout),
		api.WithWindowDays(apiCfg.WindowDays),
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	if err := client.Healthcheck(ctx); err != nil {
		a.logger.Warn("Calendar feed healthcheck failed", "error", err, "url", apiCfg.ServerURL)
	}

	book, err := client.FetchBook(ctx)
	if err != nil {
		return fmt.Errorf("fetching events: %w", err)
	}
	if _, err := a.openStorage(ctx); err != nil {
		return err
	}
	if err := a.store.SaveEvents(ctx, book); err != nil {
		return fmt.Errorf("saving events: %w", err)
	}

	a.logger.Info("Economic calendar stored", "events", book.Len(), "countries", len(book))
	fmt.Fprintf(cmd.OutOrStdout(), "stored %d events for %d countries\n", book.Len(), len(book))
	return nil
}

// clockTime renders a decimal hour as HH:MM.
func clockTime(hour float64) string {
	minutes := int(math.Round(hour * 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
