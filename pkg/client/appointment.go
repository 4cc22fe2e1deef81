package client

import (
	"context"
	"fmt"
	"net/url"

	"masterbook/pkg/model"
)

type AppointmentPage struct {
	Data       []*model.Appointment `json:"data"`
	TotalCount int64                `json:"totalCount"`
	Limit      int                  `json:"limit"`
	Offset     int64                `json:"offset"`
}

// AppointmentClient is a typed client for the appointments and availability endpoints.
type AppointmentClient struct {
	httpClient *HttpClient
}

func NewAppointmentClient(baseURL string) *AppointmentClient {
	return &AppointmentClient{httpClient: NewHttpClient(baseURL)}
}

func (c *AppointmentClient) As(actor model.Actor) *AppointmentClient {
	return &AppointmentClient{httpClient: c.httpClient.As(actor)}
}

func (c *AppointmentClient) Create(ctx context.Context, req *model.AppointmentRequest) (*model.Appointment, error) {
	resp, err := c.httpClient.POST(ctx, "/appointments", req)
	if err != nil {
		return nil, err
	}
	var appt model.Appointment
	if err := decode(resp, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (c *AppointmentClient) List(ctx context.Context, limit int, offset int64) (*AppointmentPage, error) {
	resp, err := c.httpClient.GET(ctx, fmt.Sprintf("/appointments?limit=%d&offset=%d", limit, offset))
	if err != nil {
		return nil, err
	}
	var page AppointmentPage
	if err := decode(resp, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *AppointmentClient) Get(ctx context.Context, id string) (*model.Appointment, error) {
	resp, err := c.httpClient.GET(ctx, "/appointments/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var appt model.Appointment
	if err := decode(resp, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (c *AppointmentClient) Update(ctx context.Context, id string, update *model.AppointmentUpdate) (*model.Appointment, error) {
	resp, err := c.httpClient.PATCH(ctx, "/appointments/"+url.PathEscape(id), update)
	if err != nil {
		return nil, err
	}
	var appt model.Appointment
	if err := decode(resp, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (c *AppointmentClient) Cancel(ctx context.Context, id, reason string) (*model.CancellationResult, error) {
	var body any
	if reason != "" {
		body = model.CancelRequest{Reason: reason}
	}
	resp, err := c.httpClient.DELETE(ctx, "/appointments/"+url.PathEscape(id), body)
	if err != nil {
		return nil, err
	}
	var result model.CancellationResult
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *AppointmentClient) Trigger(ctx context.Context, id string, trigger model.AutomationTrigger) (*model.TriggerResult, error) {
	path := fmt.Sprintf("/appointments/%s/automations/%s", url.PathEscape(id), url.PathEscape(string(trigger)))
	resp, err := c.httpClient.POST(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var result model.TriggerResult
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *AppointmentClient) Day(ctx context.Context, providerID, date string) (*model.DayAvailability, error) {
	q := url.Values{}
	q.Set("providerId", providerID)
	q.Set("date", date)

	resp, err := c.httpClient.GET(ctx, "/availability/day?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var day model.DayAvailability
	if err := decode(resp, &day); err != nil {
		return nil, err
	}
	return &day, nil
}

func (c *AppointmentClient) Template(ctx context.Context, providerID string) (*model.WeeklyTemplate, error) {
	path := "/availability/template"
	if providerID != "" {
		path += "?providerId=" + url.QueryEscape(providerID)
	}
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	var tmpl model.WeeklyTemplate
	if err := decode(resp, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (c *AppointmentClient) SaveTemplate(ctx context.Context, req *model.WeeklyTemplateRequest) (*model.WeeklyTemplate, error) {
	resp, err := c.httpClient.POST(ctx, "/availability/template", req)
	if err != nil {
		return nil, err
	}
	var tmpl model.WeeklyTemplate
	if err := decode(resp, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}
