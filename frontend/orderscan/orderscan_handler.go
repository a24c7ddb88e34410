package orderscan

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"pickstation/frontend/kiosk"
	sessioncontext "pickstation/frontend/shared/context"
	"pickstation/infrastructure/config"
	"pickstation/infrastructure/fulfillment"
	"pickstation/infrastructure/metrics"
)

// LoadFailedMessage is shown when the order rows could not be fetched.
const LoadFailedMessage = "Gagal memuat data order."

// OrderEntryQueryHandler renders the order entry form, or redirects to the order given in ?order=.
func OrderEntryQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if _, submitted := q["order"]; submitted {
			order := strings.TrimSpace(q.Get("order"))
			if order != "" {
				http.Redirect(w, r, "/scanpicking/"+url.PathEscape(order), http.StatusSeeOther)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusBadRequest)
			_ = EntryPage("Order ID wajib diisi.").Render(r.Context(), w)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := EntryPage("").Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render order entry", http.StatusInternalServerError)
		}
	}
}

// OrderPageQueryHandler renders the kiosk page of /scanpicking/{order}.
func OrderPageQueryHandler(client *fulfillment.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimSpace(chi.URLParam(r, "order"))
		if orderID == "" {
			http.Error(w, "invalid order", http.StatusBadRequest)
			return
		}
		data := PageData{OrderID: orderID, SocketPath: socketPath(orderID)}
		rows, err := sessioncontext.BackendClient(r.Context(), client).OrderRows(r.Context(), orderID)
		if err != nil {
			slog.Error("load order rows failed", slog.String("order_id", orderID), slog.Any("err", err))
			data.LoadError = LoadFailedMessage
		} else {
			data.Pending = rows.Pending
			data.Completed = rows.Completed
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := OrderPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render order page", http.StatusInternalServerError)
			return
		}
	}
}

// OrderSocketHandler runs one per-order Screen for the lifetime of a kiosk socket.
func OrderSocketHandler(client *fulfillment.Client, cfg *config.Config, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimSpace(chi.URLParam(r, "order"))
		if orderID == "" {
			http.Error(w, "invalid order", http.StatusBadRequest)
			return
		}
		backend := sessioncontext.BackendClient(r.Context(), client)

		conn, err := kiosk.Upgrade(w, r)
		if err != nil {
			slog.Warn("kiosk upgrade failed", slog.String("order_id", orderID), slog.Any("err", err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		rows, err := backend.OrderRows(ctx, orderID)
		if err != nil {
			slog.Error("load order rows failed", slog.String("order_id", orderID), slog.Any("err", err))
			conn.Send(kiosk.Feedback("loadError", LoadFailedMessage, "warning"))
		}

		opts := Options{
			OrderID:   orderID,
			AuthToken: backend.CSRFToken(),
			Rows:      rows,
			Backend:   backend,
			Sink:      conn,
			Metrics:   m,
			Logger:    slog.Default().With(slog.String("conn_id", conn.ID)),
		}
		if cfg != nil {
			opts.KeyGap = cfg.Scan.KeyGap
			opts.IdleTimeout = cfg.Scan.IdleTimeout
			opts.HistoryCap = cfg.Scan.HistoryCap
			opts.SoundBase = cfg.Scan.SoundBaseURL
		}
		screen, err := NewScreen(opts)
		if err != nil {
			slog.Error("open order screen failed", slog.String("order_id", orderID), slog.Any("err", err))
			return
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			screen.Run(ctx)
		}()

		err = conn.ReadEvents(func(ev kiosk.Event) {
			select {
			case screen.Events() <- ev:
			case <-ctx.Done():
			}
		})
		cancel()
		<-done
		if err != nil && !errors.Is(err, kiosk.ErrClosed) {
			slog.Info("kiosk socket closed", slog.String("order_id", orderID), slog.Any("err", err))
		}
	}
}

func socketPath(orderID string) string {
	return "/scanpicking/" + url.PathEscape(orderID) + "/ws"
}
