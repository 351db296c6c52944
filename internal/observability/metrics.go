package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"

	MCheckoutCompensations MetricKey = "checkout_compensations_total"
	MStockDebitRejections  MetricKey = "stock_debit_rejections_total"
	MNotifications         MetricKey = "notifications_total"
)
