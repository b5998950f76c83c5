package handler

import (
	"github.com/kpcnc-co/seminar/internal/repository"
	"github.com/kpcnc-co/seminar/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Seminar *SeminarHandler
	Result  *ResultHandler
	Import  *ImportHandler
	Export  *ExportHandler
	Health  *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, repo *repository.Repository, maxUploadBytes int64) *Handler {
	return &Handler{
		Seminar: NewSeminarHandler(svc.Seminar),
		Result:  NewResultHandler(svc.Seminar),
		Import:  NewImportHandler(svc.Import, maxUploadBytes),
		Export:  NewExportHandler(svc.Export),
		Health:  NewHealthHandler(repo, repo.Driver),
	}
}
