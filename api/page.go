package main

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/DeafMist/notice-radar/internal/elasticsearch"
	"github.com/DeafMist/notice-radar/internal/view"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Notificaciones DIAN</title>
</head>
<body>
<form method="get" action="/">
<input id="q" name="q" type="search" value="{{.Query}}" placeholder="Buscar">
<button id="refresh" type="submit">Actualizar</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<table id="results">
<thead><tr><th>Descubierto</th><th>Título</th><th>Resumen</th><th>Documento</th></tr></thead>
<tbody>
{{.Rows}}</tbody>
</table>
</body>
</html>
`))

type indexData struct {
	Query string
	Error string
	Rows  template.HTML
}

// storeSource lists documents straight from the store for the page view.
type storeSource struct {
	store documentStore
}

func (s storeSource) FetchDocuments(ctx context.Context, params view.FetchParams) (view.Page, error) {
	res, err := s.store.ListDocuments(ctx, elasticsearch.ListParams{Limit: params.Limit, Cursor: params.Cursor})
	if err != nil {
		return view.Page{}, err
	}

	records := make([]view.DocumentRecord, 0, len(res.Items))
	for _, doc := range res.Items {
		rec := view.DocumentRecord{
			Title:   doc.Title,
			Summary: doc.Summary,
			URL:     doc.URL,
		}
		if !doc.DiscoveredAt.IsZero() {
			rec.DiscoveredAt = doc.DiscoveredAt.UTC().Format(time.RFC3339Nano)
		}
		records = append(records, rec)
	}
	return view.Page{Records: records, NextCursor: res.NextCursor}, nil
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := r.URL.Query().Get("q")
	table := view.NewHTMLTable()
	v := view.New(storeSource{store: s.store}, table,
		view.WithPageSize(s.cfg.ViewPage),
		view.WithLogger(s.log),
	)

	data := indexData{Query: query}
	status := http.StatusOK
	if err := v.Refresh(ctx, query); err != nil {
		s.log.Error("render document list", slog.Any("err", err))
		data.Error = "No se pudieron cargar los documentos."
		status = http.StatusBadGateway
	}
	// The row cells are escaped by the view itself.
	data.Rows = template.HTML(table.HTML())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, data); err != nil {
		s.log.Error("write page", slog.Any("err", err))
	}
}
