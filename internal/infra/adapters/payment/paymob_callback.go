package payment

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"cairo-metro-ticketing/internal/domain/ports/adapter"
)

type paymobTransaction struct {
	ID                  json.Number `json:"id"`
	AmountCents         json.Number `json:"amount_cents"`
	Currency            string      `json:"currency"`
	Success             bool        `json:"success"`
	Pending             bool        `json:"pending"`
	ErrorOccured        bool        `json:"error_occured"`
	IsVoided            bool        `json:"is_voided"`
	IsRefunded          bool        `json:"is_refunded"`
	MerchantOrderIDFlat string      `json:"merchant_order_id"`
	Order               struct {
		ID              json.Number `json:"id"`
		MerchantOrderID string      `json:"merchant_order_id"`
	} `json:"order"`
	SourceData struct {
		PAN     string `json:"pan"`
		Type    string `json:"type"`
		SubType string `json:"sub_type"`
	} `json:"source_data"`
	Data struct {
		TxnResponseCode json.RawMessage `json:"txn_response_code"`
	} `json:"data"`
	TxnResponseCode json.RawMessage `json:"txn_response_code"`
}

// parseCallback decodes a Paymob transaction callback into a CallbackEvent.
func parseCallback(payload []byte) (*adapter.CallbackEvent, error) {
	obj, _, err := transactionObject(payload)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var t paymobTransaction
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		return nil, errors.New("paymob callback: missing transaction id")
	}
	cents, err := strconv.ParseInt(t.AmountCents.String(), 10, 64)
	if err != nil {
		return nil, errors.New("paymob callback: invalid amount_cents")
	}

	merchantOrderID := t.Order.MerchantOrderID
	if merchantOrderID == "" {
		merchantOrderID = t.MerchantOrderIDFlat
	}
	code := scalarString(t.Data.TxnResponseCode)
	if code == "" {
		code = scalarString(t.TxnResponseCode)
	}

	return &adapter.CallbackEvent{
		TransactionID:     t.ID.String(),
		GatewayOrderID:    t.Order.ID.String(),
		MerchantOrderID:   strings.TrimSpace(merchantOrderID),
		AmountCents:       cents,
		Currency:          t.Currency,
		Success:           t.Success,
		Pending:           t.Pending,
		ErrorOccured:      t.ErrorOccured,
		IsVoided:          t.IsVoided,
		IsRefunded:        t.IsRefunded,
		SourceDataType:    t.SourceData.Type,
		SourceDataSubType: t.SourceData.SubType,
		MaskedPAN:         t.SourceData.PAN,
		ResponseCode:      code,
		Raw:               payload,
	}, nil
}
