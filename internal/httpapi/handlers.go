package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"svcreg/internal/domain"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.CodeBadRequest, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := s.store.Register(req.Name, req.URL, req.HealthCheckURL, req.Metadata); err != nil {
		s.writeError(w, domain.CodeBadRequest, err.Error(), http.StatusBadRequest)
		return
	}

	s.writeStatus(w, "registered", http.StatusCreated)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var update domain.RecordUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.writeError(w, domain.CodeBadRequest, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if !s.store.Update(name, update) {
		s.writeNotFound(w, name)
		return
	}

	s.writeStatus(w, "updated", http.StatusOK)
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	record, ok := s.store.Get(name)
	if !ok {
		s.writeNotFound(w, name)
		return
	}

	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetAll())
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if !s.store.RecordHeartbeat(name) {
		s.writeNotFound(w, name)
		return
	}

	s.writeStatus(w, "ok", http.StatusOK)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if !s.store.Delete(name) {
		s.writeNotFound(w, name)
		return
	}

	s.writeStatus(w, "deleted", http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, domain.HealthStatus{
		Status:    "ok",
		Version:   domain.Version,
		Timestamp: s.now().UnixMilli(),
		Services:  s.store.Count(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeStatus(w http.ResponseWriter, status string, code int) {
	s.writeJSON(w, code, domain.StatusResponse{
		Status:    status,
		Timestamp: s.now().UnixMilli(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, code domain.ErrorCode, message string, status int) {
	s.writeJSON(w, status, domain.ErrorResponse{
		Error:   string(code),
		Message: message,
	})
}

func (s *Server) writeNotFound(w http.ResponseWriter, name string) {
	s.writeError(w, domain.CodeNotFound, "service not registered: "+name, http.StatusNotFound)
}
