package handlers

import (
	"html/template"
	"io/fs"
	"net/http"

	"kioskpanel/internal/log"
	"kioskpanel/internal/models"
	"kioskpanel/internal/service"
)

type PageData struct {
	Title        string
	RemoteHost   string
	DashboardURL string
	AuthEnabled  bool
	LastAction   models.LastAction
}

// PageSettings are the static values rendered into the control panel page.
type PageSettings struct {
	RemoteHost   string
	DashboardURL string
	AuthEnabled  bool
}

type TemplateHandler struct {
	templates *template.Template
	control   *service.ControlService
	settings  PageSettings
	logger    log.Logger
}

func NewTemplateHandler(templatesFS fs.FS, control *service.ControlService, settings PageSettings, logger log.Logger) (*TemplateHandler, error) {
	tmpl, err := template.ParseFS(templatesFS, "*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &TemplateHandler{
		templates: tmpl,
		control:   control,
		settings:  settings,
		logger:    logger.WithName("templates"),
	}, nil
}

func (th *TemplateHandler) buildPageData() PageData {
	return PageData{
		Title:        "Kiosk Control Panel - " + th.settings.RemoteHost,
		RemoteHost:   th.settings.RemoteHost,
		DashboardURL: th.settings.DashboardURL,
		AuthEnabled:  th.settings.AuthEnabled,
		LastAction:   th.control.LastAction(),
	}
}

func (th *TemplateHandler) ServeTemplate(templateName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if err := th.templates.ExecuteTemplate(w, templateName+".html", th.buildPageData()); err != nil {
			th.logger.Error(err, "execute template", "template", templateName)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}
