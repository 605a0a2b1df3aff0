package api

import (
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"cairo-metro-ticketing/internal/domain"
)

// handlePaymentCallback receives the gateway's server-to-server transaction
// callback. The signature comes from ?hmac= or, failing that, the body.
func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(payload) == 0 {
		writeBadRequest(w, &badRequest{status: http.StatusBadRequest, body: errorBody{Code: "bad_request", Message: "request body is required"}})
		return
	}
	res, err := s.d.Payments.HandleCallback(r.Context(), payload, r.URL.Query().Get("hmac"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			writeJSON(w, http.StatusBadRequest, callbackResponse{Status: "failed"})
			return
		}
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, callbackResponse{
		Status:    callbackStatus(res.Status),
		PaymentID: res.PaymentID,
		Replayed:  res.Replayed,
	})
}

// handlePaymentReturn is where the hosted checkout redirects the rider's browser.
// It only informs; state changes happen through the signed callback.
func (s *Server) handlePaymentReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ok := strings.EqualFold(q.Get("success"), "true") && !strings.EqualFold(q.Get("pending"), "true")
	msg := "Your payment was not completed. You can retry it from your tickets."
	if ok {
		msg = "Your payment was received. Your ticket will be ready once the payment is confirmed."
	}
	renderResult(w, http.StatusOK, ok, msg, q.Get("merchant_order_id"))
}

var resultPage = template.Must(template.New("result").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Payment {{if .OK}}Received{{else}}Result{{end}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}Payment Received{{else}}Payment Not Completed{{end}}</h2>
  <p>{{.Msg}}</p>
  {{if .Reference}}<div class="small">Reference: {{.Reference}}</div>{{end}}
</div>
</body>
</html>`))

func renderResult(w http.ResponseWriter, code int, ok bool, msg, reference string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = resultPage.Execute(w, struct {
		OK        bool
		Msg       string
		Reference string
	}{
		OK:        ok,
		Msg:       msg,
		Reference: reference,
	})
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	ps, err := s.d.Payments.ListMine(r.Context(), actorFrom(r.Context()).UserID, limit, offset)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]paymentView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPaymentView(p))
	}
	writeJSON(w, http.StatusOK, out)
}
