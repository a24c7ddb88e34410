package picking

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
	"pickstation/infrastructure/cache"
	"pickstation/infrastructure/config"
	"pickstation/infrastructure/fulfillment"
	"pickstation/infrastructure/metrics"
)

// LoadFailedMessage is shown when the picklist rows could not be fetched. The screen still opens.
const LoadFailedMessage = "Gagal memuat data picklist."

// PickingPageQueryHandler renders the kiosk page of /picking/{picklist}.
func PickingPageQueryHandler(client *fulfillment.Client, rows *cache.RowsCache, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		picklist := strings.TrimSpace(chi.URLParam(r, "picklist"))
		if picklist == "" {
			http.Error(w, "invalid picklist", http.StatusBadRequest)
			return
		}
		variant := LookupVariant(r.URL.Query().Get("variant"), cfg)

		backend := sessioncontext.BackendClient(r.Context(), client)
		items, err := backend.PicklistRows(r.Context(), picklist)
		loadError := ""
		if err != nil {
			slog.Error("load picklist rows failed", slog.String("picklist", picklist), slog.Any("err", err))
			loadError = LoadFailedMessage
		} else {
			rows.Add(picklist, backend.CSRFToken(), items)
		}

		data := NewPageData(picklist, variant, items, socketPath(picklist, variant))
		data.LoadError = loadError
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := PickingPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render picking page", http.StatusInternalServerError)
			return
		}
	}
}

// PickingSocketHandler runs one Screen for the lifetime of a kiosk socket.
func PickingSocketHandler(client *fulfillment.Client, hub *cache.ScreenHub, rows *cache.RowsCache, cfg *config.Config, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		picklist := strings.TrimSpace(chi.URLParam(r, "picklist"))
		if picklist == "" {
			http.Error(w, "invalid picklist", http.StatusBadRequest)
			return
		}
		variant := LookupVariant(r.URL.Query().Get("variant"), cfg)
		backend := sessioncontext.BackendClient(r.Context(), client)

		conn, err := kiosk.Upgrade(w, r)
		if err != nil {
			slog.Warn("kiosk upgrade failed", slog.String("picklist", picklist), slog.Any("err", err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		items, ok := rows.Take(picklist, backend.CSRFToken())
		if !ok {
			items, err = backend.PicklistRows(ctx, picklist)
			if err != nil {
				slog.Error("load picklist rows failed", slog.String("picklist", picklist), slog.Any("err", err))
				conn.Send(kiosk.Feedback("loadError", LoadFailedMessage, "warning"))
			}
		}

		screen, err := NewScreen(Options{
			Picklist:  picklist,
			AuthToken: backend.CSRFToken(),
			Variant:   variant,
			Items:     items,
			Backend:   backend,
			Sink:      conn,
			Publisher: hub,
			Metrics:   m,
			Logger:    slog.Default().With(slog.String("conn_id", conn.ID)),
		})
		if err != nil {
			slog.Error("open screen failed", slog.String("picklist", picklist), slog.Any("err", err))
			return
		}
		hub.Subscribe(picklist, screen.ID, screen.Updates())
		defer hub.Unsubscribe(picklist, screen.ID)

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
			slog.Info("kiosk socket closed", slog.String("picklist", picklist), slog.Any("err", err))
		}
	}
}

func socketPath(picklist string, variant Variant) string {
	return "/picking/" + url.PathEscape(picklist) + "/ws?variant=" + url.QueryEscape(variant.Name)
}
