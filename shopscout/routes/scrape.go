package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"shopscout/shopscout/controllers"
	"shopscout/shopscout/services/crawler"
	httputils "shopscout/shopscout/utils/http"
	"shopscout/shopscout/utils/jsonutils"
	"shopscout/shopscout/utils/logging"
	"shopscout/shopscout/utils/types"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var (
	errInvalidLimit      = errors.New("limit must be a positive integer")
	errStreamUnsupported = errors.New("streaming unsupported")
)

// ScrapeRoutes serves the crawl stream over Server-Sent Events at "/" and
// over a websocket at "/ws".
func ScrapeRoutes(ctrl *controllers.ScrapeController) chi.Router {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		req, err := ctrl.ParseCrawlRequest(r.URL.Query())
		if err != nil {
			httputils.WriteError(w, statusFor(err), err)
			return
		}
		flusher, ok := httputils.PrepareEventStream(w)
		if !ok {
			httputils.WriteError(w, http.StatusInternalServerError, errStreamUnsupported)
			return
		}

		events := ctrl.StartCrawl(r.Context(), req)
		err = crawler.Deliver(r.Context(), events, crawler.SinkFunc(func(ctx context.Context, ev types.Event) error {
			frame, err := jsonutils.SSEFrame(ev)
			if err != nil {
				return err
			}
			if _, err := w.Write(frame); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}))
		logDelivery(r, err)
	})

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		req, err := ctrl.ParseCrawlRequest(r.URL.Query())
		if err != nil {
			httputils.WriteError(w, statusFor(err), err)
			return
		}
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		// the client never sends; CloseRead handles control frames and
		// cancels ctx when the peer goes away
		ctx := conn.CloseRead(r.Context())

		events := ctrl.StartCrawl(ctx, req)
		err = crawler.Deliver(ctx, events, crawler.SinkFunc(func(ctx context.Context, ev types.Event) error {
			data, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			return conn.Write(ctx, websocket.MessageText, data)
		}))
		logDelivery(r, err)
		if err == nil {
			conn.Close(websocket.StatusNormalClosure, "")
		}
	})

	return r
}

// ImageRoutes relays product images so galleries avoid hotlink protection.
func ImageRoutes(ctrl *controllers.ScrapeController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		img, err := ctrl.ProxyImage(r.Context(), r.URL.Query().Get("url"))
		if err != nil {
			httputils.WriteError(w, statusFor(err), err)
			return
		}
		w.Header().Set("Content-Type", img.ContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(img.Body)
	})
	return r
}

func CacheRoutes(ctrl *controllers.ScrapeController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		cache, err := ctrl.Cache(r.Context())
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return cache, http.StatusOK, nil
	}))
	return r
}

func logDelivery(r *http.Request, err error) {
	if err == nil {
		return
	}
	logging.RequestLogger.Info("stream client went away, run continues in background",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
}
