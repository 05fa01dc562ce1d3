package misc

import (
	"errors"
	"net/http"

	"github.com/2beens/calispro/internal/telemetry/tracing"
	"github.com/2beens/calispro/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	quotesManager *QuotesManager
	versionInfo   string
}

func NewHandler(quotesManager *QuotesManager, versionInfo string) *Handler {
	return &Handler{
		quotesManager: quotesManager,
		versionInfo:   versionInfo,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
	mainRouter.HandleFunc("/api/quotes/random", handler.handleGetRandomQuote).Methods("GET").Name("quote")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteResponseBytesOK(w, pkg.ContentType.Text, []byte("I'm OK, keep training ;)"))
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteResponseBytesOK(w, pkg.ContentType.Text, []byte(handler.versionInfo))
}

func (handler *Handler) handleGetRandomQuote(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.quote")
	defer span.End()

	topic := r.URL.Query().Get("topic")
	span.SetAttributes(attribute.String("quote.topic", topic))

	q, err := handler.quotesManager.RandomQuote(topic)
	if err != nil {
		if errors.Is(err, ErrNoQuotes) {
			http.Error(w, "no quotes for topic", http.StatusNotFound)
			return
		}
		log.Errorf("random quote: %s", err)
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, q, http.StatusOK)
}
