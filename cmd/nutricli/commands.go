package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nutricoach/nutricoach/internal/logger"
	"github.com/nutricoach/nutricoach/internal/screen"
	"github.com/nutricoach/nutricoach/pkg/client"
)

type app struct {
	out     io.Writer
	baseURL string
	userID  int64
	timeout time.Duration
	verbose bool

	api *client.Client
	log zerolog.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:          "nutricli",
		Short:        "Terminal client for the Dra. Laura Rozo nutrition app",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "error"
			if a.verbose {
				level = "debug"
			}
			a.log = logger.NewWithWriter(cmd.ErrOrStderr(), level, "console")
			a.api = client.New(a.baseURL, client.WithTimeout(a.timeout))
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.baseURL, "api", "http://localhost:3000", "API base URL")
	flags.Int64Var(&a.userID, "user", 1, "patient id")
	flags.DurationVar(&a.timeout, "timeout", client.DefaultTimeout, "request timeout")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log request failures")

	root.AddCommand(
		&cobra.Command{Use: "home", Short: "Show the welcome screen", Args: cobra.NoArgs, Run: a.home},
		&cobra.Command{Use: "plan", Short: "Show the current nutrition plan", Args: cobra.NoArgs, Run: a.plan},
		&cobra.Command{Use: "progress", Short: "Show recorded metrics", Args: cobra.NoArgs, Run: a.progress},
		&cobra.Command{Use: "calendar", Short: "Show upcoming events", Args: cobra.NoArgs, Run: a.calendar},
		&cobra.Command{Use: "store", Short: "List supplements", Args: cobra.NoArgs, Run: a.store},
		&cobra.Command{Use: "chat <message>", Short: "Ask the clinic assistant", Args: cobra.MinimumNArgs(1), Run: a.chat},
		&cobra.Command{Use: "buy <id[:qty]>...", Short: "Add products to a cart and check out", Args: cobra.MinimumNArgs(1), RunE: a.buy},
	)
	return root
}

func (a *app) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

func (a *app) home(cmd *cobra.Command, _ []string) {
	h := screen.NewHome()
	fmt.Fprintf(a.out, "%s\n%s\n\n%s\n", h.Title, h.Subtitle, h.Intro)
}

func (a *app) plan(cmd *cobra.Command, _ []string) {
	ctx, cancel := a.ctx(cmd)
	defer cancel()

	v := screen.LoadPlan(ctx, a.api, a.userID, a.log)
	fmt.Fprintln(a.out, v.Title)
	switch v.State {
	case screen.StateReady:
		fmt.Fprintf(a.out, "\n%s\n%s\n", v.Plan.Title, v.Plan.Description)
	case screen.StateEmpty:
		fmt.Fprintln(a.out, "Aún no tienes un plan asignado.")
	default:
		fmt.Fprintln(a.out, "No se pudo cargar el plan.")
	}
}

func (a *app) progress(cmd *cobra.Command, _ []string) {
	ctx, cancel := a.ctx(cmd)
	defer cancel()

	v := screen.LoadProgress(ctx, a.api, a.userID, a.log)
	fmt.Fprintln(a.out, v.Title)
	switch v.State {
	case screen.StateReady:
		for _, m := range v.Metrics {
			fmt.Fprintf(a.out, "%s  peso %s  grasa %s  %s\n", m.Date, optFloat(m.Weight, "kg"), optFloat(m.BodyFat, "%"), optString(m.Notes))
		}
	case screen.StateEmpty:
		fmt.Fprintln(a.out, "Todavía no hay métricas registradas.")
	default:
		fmt.Fprintln(a.out, "No se pudieron cargar tus métricas.")
	}
}

func (a *app) calendar(cmd *cobra.Command, _ []string) {
	ctx, cancel := a.ctx(cmd)
	defer cancel()

	v := screen.LoadCalendar(ctx, a.api, a.userID, a.log)
	fmt.Fprintln(a.out, v.Title)
	switch v.State {
	case screen.StateReady:
		for _, e := range v.Events {
			fmt.Fprintf(a.out, "%s  [%s] %s\n", e.Date, e.Type, e.Title)
		}
	case screen.StateEmpty:
		fmt.Fprintln(a.out, "No hay eventos próximos.")
	default:
		fmt.Fprintln(a.out, "No se pudo cargar el calendario.")
	}
}

func (a *app) store(cmd *cobra.Command, _ []string) {
	ctx, cancel := a.ctx(cmd)
	defer cancel()

	s := screen.NewStore(a.api, a.api, a.userID, a.log)
	fmt.Fprintln(a.out, s.Title())
	switch s.Load(ctx) {
	case screen.StateReady:
		for _, p := range s.Products() {
			fmt.Fprintf(a.out, "%3d  %-28s $%8.2f  %s\n", p.ID, p.Name, p.Price, p.Description)
		}
	case screen.StateEmpty:
		fmt.Fprintln(a.out, "No hay productos disponibles.")
	default:
		fmt.Fprintln(a.out, "No se pudieron cargar los productos.")
	}
}

func (a *app) chat(cmd *cobra.Command, args []string) {
	ctx, cancel := a.ctx(cmd)
	defer cancel()

	c := screen.NewChat(a.api, a.log)
	if _, ok := c.Send(ctx, strings.Join(args, " ")); !ok {
		return
	}
	for _, m := range c.History() {
		fmt.Fprintf(a.out, "%s: %s\n", m.From, m.Text)
	}
}

func (a *app) buy(cmd *cobra.Command, args []string) error {
	picks, err := parsePicks(args)
	if err != nil {
		return err
	}

	ctx, cancel := a.ctx(cmd)
	defer cancel()

	s := screen.NewStore(a.api, a.api, a.userID, a.log)
	if s.Load(ctx) != screen.StateReady {
		return fmt.Errorf("no se pudieron cargar los productos")
	}
	for _, p := range picks {
		for i := 0; i < p.qty; i++ {
			if err := s.Add(p.id); err != nil {
				return err
			}
		}
	}

	for _, e := range s.Cart() {
		fmt.Fprintf(a.out, "%d x %s\n", e.Quantity, e.Product.Name)
	}
	fmt.Fprintf(a.out, "Total estimado: $%s\n", s.Total().StringFixed(2))

	receipt, err := s.Checkout(ctx)
	if err != nil {
		return fmt.Errorf("no se pudo crear la orden: %w", err)
	}
	fmt.Fprintf(a.out, "Orden #%d %s, total $%s\n", receipt.OrderID, receipt.Status, receipt.Total.StringFixed(2))
	return nil
}

type pick struct {
	id  int64
	qty int
}

// parsePicks reads "id" or "id:qty" arguments.
func parsePicks(args []string) ([]pick, error) {
	out := make([]pick, 0, len(args))
	for _, arg := range args {
		idPart, qtyPart, hasQty := strings.Cut(arg, ":")

		id, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid product id in %q", arg)
		}
		qty := 1
		if hasQty {
			qty, err = strconv.Atoi(qtyPart)
			if err != nil || qty <= 0 {
				return nil, fmt.Errorf("invalid quantity in %q", arg)
			}
		}
		out = append(out, pick{id: id, qty: qty})
	}
	return out, nil
}

func optFloat(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + unit
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
