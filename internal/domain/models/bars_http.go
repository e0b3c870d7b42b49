package models

type GetBarsRequest struct {
	PoolID   string `param:"pool_id" validate:"required"`
	Interval string `query:"interval" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	From     string `query:"from"`
	To       string `query:"to"`
	Limit    int    `query:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type GetBarsResponse struct {
	PoolID   string `json:"pool_id"`
	Interval string `json:"interval"`
	Bars     []Bar  `json:"bars"`
}
