package internal

import (
	"chat-mailbox/observability"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// InspectRow describes one badger key. Values are never exposed, only their size.
type InspectRow struct {
	Key       string `json:"key"`
	Namespace string `json:"namespace"`
	Type      string `json:"type"`
	EntityID  string `json:"entity_id"`
	Size      int    `json:"size"`
}

type PageData struct {
	Prefix string                        `json:"prefix"`
	Items  []InspectRow                  `json:"items"`
	Stats  observability.MonitoringStats `json:"stats"`
}

// DebugServer serves session counters and a key listing of the store on a
// separate HTTP port. It runs as a supervised worker.
type DebugServer struct {
	db         *badger.DB
	monitoring *observability.MonitoringManager
	log        *slog.Logger
	address    string
}

func NewDebugServer(db *badger.DB, monitoring *observability.MonitoringManager, log *slog.Logger, address string) *DebugServer {
	return &DebugServer{db: db, monitoring: monitoring, log: log, address: address}
}

func (d *DebugServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.monitoring.Snapshot())
	})
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		data := PageData{Prefix: prefix, Items: []InspectRow{}, Stats: d.monitoring.Snapshot()}

		err := d.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				data.Items = append(data.Items, DefaultMapper(string(item.KeyCopy(nil)), int(item.ValueSize())))
			}
			return nil
		})
		if err != nil {
			d.log.Error("Inspect failed", "prefix", prefix, "error", err)
			http.Error(w, "inspect failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, data)
	})
	return mux
}

// Run listens until ctx is canceled, then shuts the HTTP server down.
func (d *DebugServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", d.address)
	if err != nil {
		return err
	}
	server := &http.Server{Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	d.log.Info("Debug server listening", "address", listener.Addr().String())
	if err := server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// DefaultMapper splits "namespace:type:entity" keys. Name index keys carry
// two more segments; the last one is the identity id.
func DefaultMapper(key string, size int) InspectRow {
	row := InspectRow{Key: key, Namespace: "default", Type: "RAW", EntityID: "-", Size: size}
	parts := strings.Split(key, ":")
	switch {
	case len(parts) >= 3:
		row.Namespace, row.Type = parts[0], parts[1]
		row.EntityID = trimID(parts[len(parts)-1])
	case len(parts) == 2:
		row.Namespace = parts[0]
		row.EntityID = trimID(parts[1])
	}
	return row
}

func trimID(s string) string {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return s
	}
	return strconv.FormatUint(n, 10)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
