package chain

import "strconv"

type accountResponse struct {
	SequenceNumber    string `json:"sequence_number"`
	AuthenticationKey string `json:"authentication_key"`
}

type gasEstimateResponse struct {
	GasEstimate uint64 `json:"gas_estimate"`
}

type entryFunctionPayload struct {
	Type          string        `json:"type"`
	Function      string        `json:"function"`
	TypeArguments []string      `json:"type_arguments"`
	Arguments     []interface{} `json:"arguments"`
}

type transactionRequest struct {
	Sender                  string               `json:"sender"`
	SequenceNumber          string               `json:"sequence_number"`
	MaxGasAmount            string               `json:"max_gas_amount"`
	GasUnitPrice            string               `json:"gas_unit_price"`
	ExpirationTimestampSecs string               `json:"expiration_timestamp_secs"`
	Payload                 entryFunctionPayload `json:"payload"`
}

type signature struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

type submitRequest struct {
	transactionRequest
	Signature signature `json:"signature"`
}

type userTransaction struct {
	Type     string `json:"type"`
	Hash     string `json:"hash"`
	Version  string `json:"version"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
	GasUsed  string `json:"gas_used"`
}

type errorResponse struct {
	Message     string `json:"message"`
	ErrorCode   string `json:"error_code"`
	VMErrorCode int    `json:"vm_error_code"`
}

func toRequest(tx *Transaction) transactionRequest {
	args := tx.Payload.Arguments
	if args == nil {
		args = []interface{}{}
	}
	typeArgs := tx.Payload.TypeArguments
	if typeArgs == nil {
		typeArgs = []string{}
	}
	return transactionRequest{
		Sender:                  tx.Sender,
		SequenceNumber:          strconv.FormatUint(tx.SequenceNumber, 10),
		MaxGasAmount:            strconv.FormatUint(tx.MaxGasAmount, 10),
		GasUnitPrice:            strconv.FormatUint(tx.GasUnitPrice, 10),
		ExpirationTimestampSecs: strconv.FormatUint(tx.ExpirationTimestampSecs, 10),
		Payload: entryFunctionPayload{
			Type:          "entry_function_payload",
			Function:      tx.Payload.Function,
			TypeArguments: typeArgs,
			Arguments:     args,
		},
	}
}
