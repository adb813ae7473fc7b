package webhooks

// DarajaCallback is the envelope the payment provider posts to the callback
// URL after the customer completes or abandons the STK prompt.
type DarajaCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []MetadataItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// MetadataItem is one name/value pair from the callback metadata block.
type MetadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// CallbackResult is the normalized view of a callback the reconciler works on.
type CallbackResult struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	MpesaReceipt      *string
}

// Result flattens the provider envelope, pulling the receipt number out of the
// metadata items when present.
func (c *DarajaCallback) Result() CallbackResult {
	stk := c.Body.StkCallback
	result := CallbackResult{
		CheckoutRequestID: stk.CheckoutRequestID,
		ResultCode:        stk.ResultCode,
		ResultDesc:        stk.ResultDesc,
	}
	for _, item := range stk.CallbackMetadata.Item {
		if item.Name != "MpesaReceiptNumber" {
			continue
		}
		if receipt, ok := item.Value.(string); ok && receipt != "" {
			result.MpesaReceipt = &receipt
		}
	}
	return result
}
