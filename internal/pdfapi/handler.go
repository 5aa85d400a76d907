/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package pdfapi

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pdffacil/pdfgate/admission"
	"github.com/pdffacil/pdfgate/convert"
	"github.com/pdffacil/pdfgate/httpserver/middleware"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/lrucache"
	"github.com/pdffacil/pdfgate/restapi"
)

// UploadFieldName is the name of the multipart form field with the uploaded PDF.
const UploadFieldName = "file"

// RootMessage is returned by the root endpoint.
const RootMessage = "PDF Processor API is running"

// Error codes of the API.
const (
	ErrCodeNotPDF           = "notPDF"
	ErrCodePayloadTooLarge  = "payloadTooLarge"
	ErrCodeUnknownOperation = "unknownOperation"
	ErrCodeQuotaExceeded    = "quotaExceeded"
	ErrCodeConversionFailed = "conversionFailed"
)

// Response headers with the client's quota for the requested operation.
const (
	HeaderQuotaLimit     = "X-Quota-Limit"
	HeaderQuotaRemaining = "X-Quota-Remaining"
)

// Endpoint binds a conversion route to the admission operation and the output format.
type Endpoint struct {
	Path      string
	Operation admission.Operation
	Format    convert.Format
}

// Endpoints are the conversion endpoints served by the API.
var Endpoints = []Endpoint{
	{Path: "/pdf-to-text", Operation: admission.OperationPDFToText, Format: convert.FormatDocument},
	{Path: "/pdf-to-txt", Operation: admission.OperationPDFToTXT, Format: convert.FormatText},
	{Path: "/pdf-to-docx", Operation: admission.OperationPDFToDOCX, Format: convert.FormatDOCX},
	{Path: "/pdf-to-excel", Operation: admission.OperationPDFToExcel, Format: convert.FormatXLSX},
}

// TextResponse is the response body of the pdf-to-text endpoint.
type TextResponse struct {
	Filename     string            `json:"filename"`
	TotalPages   int               `json:"total_pages"`
	Metadata     map[string]string `json:"metadata"`
	DocumentInfo convert.Info      `json:"document_info"`
	Text         []convert.Page    `json:"text"`
}

// EndpointStatus is the response body of the per-endpoint status route.
type EndpointStatus struct {
	ClientID  string              `json:"client_id"`
	Operation admission.Operation `json:"operation"`
	admission.Usage
}

type cacheKey struct {
	sum    [sha256.Size]byte
	format convert.Format
}

// Opts represents options for the Handler.
type Opts struct {
	ErrorDomain string
	// CacheMetrics is used when the conversion cache is enabled. Metrics are not collected if nil.
	CacheMetrics lrucache.MetricsCollector
	// Logger is used when there is no logger in the request context.
	Logger log.FieldLogger
}

// Handler serves the conversion and the quota status endpoints.
type Handler struct {
	controller        *admission.Controller
	converter         *convert.Converter
	cache             *lrucache.LRUCache[cacheKey, *convert.Result]
	conversionTimeout time.Duration
	errDomain         string
	logger            log.FieldLogger
}

// NewHandler creates a new Handler.
func NewHandler(cfg *Config, controller *admission.Controller, converter *convert.Converter, opts Opts) (*Handler, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	h := &Handler{
		controller:        controller,
		converter:         converter,
		conversionTimeout: time.Duration(cfg.ConversionTimeout),
		errDomain:         opts.ErrorDomain,
		logger:            opts.Logger,
	}
	if h.conversionTimeout <= 0 {
		h.conversionTimeout = DefaultConversionTimeout
	}
	if cfg.Cache.MaxEntries > 0 {
		cache, err := lrucache.NewWithOpts[cacheKey, *convert.Result](cfg.Cache.MaxEntries, opts.CacheMetrics,
			lrucache.Options{DefaultTTL: time.Duration(cfg.Cache.TTL)})
		if err != nil {
			return nil, fmt.Errorf("create conversion cache: %w", err)
		}
		h.cache = cache
	}
	return h, nil
}

// RootRoutes registers the routes that are served at "/" only.
func (h *Handler) RootRoutes(router chi.Router) {
	router.Get("/", h.handleRoot)
	h.Routes(router)
}

// Routes registers the conversion and the status routes.
func (h *Handler) Routes(router chi.Router) {
	for _, ep := range Endpoints {
		convertHandler := h.convertHandler(ep)
		router.Post(ep.Path, convertHandler)
		router.Post(ep.Path+"/", convertHandler)
		router.Get(ep.Path+"/status/", h.endpointStatusHandler(ep))
	}
	router.Get("/quota/status/", h.handleQuotaStatus)
}

func (h *Handler) handleRoot(rw http.ResponseWriter, r *http.Request) {
	restapi.RespondJSON(rw, map[string]string{"message": RootMessage}, h.loggerFromRequest(r))
}

func (h *Handler) handleQuotaStatus(rw http.ResponseWriter, r *http.Request) {
	restapi.RespondJSON(rw, h.controller.Status(middleware.GetClientID(r)), h.loggerFromRequest(r))
}

func (h *Handler) endpointStatusHandler(ep Endpoint) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		snapshot := h.controller.Status(middleware.GetClientID(r))
		restapi.RespondJSON(rw, EndpointStatus{
			ClientID:  snapshot.ClientID,
			Operation: ep.Operation,
			Usage:     snapshot.Operations[ep.Operation],
		}, h.loggerFromRequest(r))
	}
}

func (h *Handler) convertHandler(ep Endpoint) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		logger := h.loggerFromRequest(r).With(log.String(admission.LogFieldKeyOperation, string(ep.Operation)))
		lp := middleware.GetLoggingParamsFromContext(r.Context())

		file, err := restapi.ReadUploadedFile(r, UploadFieldName)
		if err != nil {
			restapi.RespondMalformedRequestOrInternalError(rw, h.errDomain, err, logger)
			return
		}
		if !hasPDFExtension(file.Filename) {
			apiErr := restapi.NewError(h.errDomain, ErrCodeNotPDF, "Only PDF files are accepted.")
			restapi.RespondError(rw, http.StatusBadRequest, apiErr, logger)
			return
		}

		decision := h.controller.CheckAndAdmit(middleware.GetClientID(r), ep.Operation, file.Size())
		if lp != nil {
			lp.ExtendFields(
				log.String(admission.LogFieldKeyOperation, string(ep.Operation)),
				log.Int64("file_size", file.Size()),
				log.String("admission", admissionResult(decision)),
			)
		}
		if !decision.Admitted {
			h.respondRejection(rw, decision, logger)
			return
		}
		rw.Header().Set(HeaderQuotaLimit, strconv.FormatInt(decision.Limit, 10))
		rw.Header().Set(HeaderQuotaRemaining, strconv.Itoa(decision.Remaining()))

		startTime := time.Now()
		res, cached, err := h.convert(r.Context(), file.Data, ep.Format)
		if lp != nil {
			lp.AddTimeSlotDurationInMs("conversion_ms", time.Since(startTime))
			lp.ExtendFields(log.Bool("conversion_cached", cached))
		}
		if err != nil {
			logger.Error("PDF conversion failed", log.String("filename", file.Filename), log.Error(err))
			apiErr := restapi.NewError(h.errDomain, ErrCodeConversionFailed, conversionErrorMessage(err))
			restapi.RespondError(rw, http.StatusInternalServerError, apiErr, logger)
			return
		}

		if ep.Format == convert.FormatDocument {
			restapi.RespondJSON(rw, TextResponse{
				Filename:     file.Filename,
				TotalPages:   len(res.Document.Pages),
				Metadata:     res.Document.Metadata,
				DocumentInfo: res.Document.Info,
				Text:         res.Document.Pages,
			}, logger)
			return
		}
		restapi.RespondAttachment(rw, OutputFilename(file.Filename, ep.Format.Extension()),
			ep.Format.ContentType(), res.Data, logger)
	}
}

func (h *Handler) convert(ctx context.Context, data []byte, format convert.Format) (*convert.Result, bool, error) {
	if h.cache == nil {
		ctx, cancel := context.WithTimeout(ctx, h.conversionTimeout)
		defer cancel()
		res, err := h.converter.Convert(ctx, data, format)
		return res, false, err
	}
	key := cacheKey{sum: sha256.Sum256(data), format: format}
	return h.cache.GetOrLoad(key, func(cacheKey) (*convert.Result, error) {
		// Concurrent uploads of the same file wait for one load,
		// so it must not end when the request that started it is canceled.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.conversionTimeout)
		defer cancel()
		return h.converter.Convert(loadCtx, data, format)
	})
}

func (h *Handler) respondRejection(rw http.ResponseWriter, decision admission.Decision, logger log.FieldLogger) {
	switch decision.Reason {
	case admission.RejectReasonPayloadTooLarge:
		apiErr := restapi.NewError(h.errDomain, ErrCodePayloadTooLarge, decision.Message).
			AddContext("max_size", decision.Limit)
		restapi.RespondError(rw, http.StatusRequestEntityTooLarge, apiErr, logger)
	case admission.RejectReasonQuotaExceeded:
		apiErr := restapi.NewError(h.errDomain, ErrCodeQuotaExceeded, decision.Message).
			AddContext("operation", string(decision.Operation)).
			AddContext("limit", decision.Limit).
			AddContext("used", decision.Used)
		rw.Header().Set(HeaderQuotaLimit, strconv.FormatInt(decision.Limit, 10))
		rw.Header().Set(HeaderQuotaRemaining, "0")
		restapi.RespondError(rw, http.StatusTooManyRequests, apiErr, logger)
	case admission.RejectReasonUnknownOperation:
		apiErr := restapi.NewError(h.errDomain, ErrCodeUnknownOperation, decision.Message).
			AddContext("operation", string(decision.Operation))
		restapi.RespondError(rw, http.StatusBadRequest, apiErr, logger)
	default:
		restapi.RespondInternalError(rw, h.errDomain, logger)
	}
}

func (h *Handler) loggerFromRequest(r *http.Request) log.FieldLogger {
	if logger := middleware.GetLoggerFromContext(r.Context()); logger != nil {
		return logger
	}
	return h.logger
}

func admissionResult(d admission.Decision) string {
	if d.Admitted {
		return "admitted"
	}
	return d.Reason.String()
}

func conversionErrorMessage(err error) string {
	switch {
	case errors.Is(err, convert.ErrNotPDF):
		return "The uploaded file is not a valid PDF document."
	case errors.Is(err, convert.ErrEncrypted):
		return "The uploaded PDF is protected by a password."
	case errors.Is(err, context.DeadlineExceeded):
		return "PDF processing took too long."
	}
	return "Error processing PDF."
}

func hasPDFExtension(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// OutputFilename replaces the ".pdf" extension of the uploaded file name with ext.
func OutputFilename(filename, ext string) string {
	if hasPDFExtension(filename) {
		return filename[:len(filename)-len(".pdf")] + ext
	}
	return filename + ext
}
