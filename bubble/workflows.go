// ABOUTME: Workflow API calls that create and update instances and brand deals
// ABOUTME: Validates payloads locally before posting to /wf/{name}
package bubble

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Workflow names.
const (
	WorkflowCreateInstance  = "create-instance"
	WorkflowUpdateInstance  = "update-instance"
	WorkflowCreateBrandDeal = "create-branddeal"
	WorkflowUpdateBrandDeal = "update-branddeal"
	WorkflowLogin           = "login"
	WorkflowLogout          = "logout"
)

// WorkflowResult is the decoded body of a workflow call.
type WorkflowResult struct {
	Status   string                     `json:"status"`
	Message  string                     `json:"message,omitempty"`
	Response map[string]json.RawMessage `json:"response,omitempty"`
}

// ID returns the first string value found under any of keys in the
// response, which is how workflows hand back the id of what they created.
func (r WorkflowResult) ID(keys ...string) string {
	for _, k := range keys {
		raw, ok := r.Response[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// Workflow posts body to a named workflow and decodes its result.
func (c *Client) Workflow(ctx context.Context, name string, body any) (WorkflowResult, error) {
	return c.workflow(ctx, name, body, nil)
}

func (c *Client) workflow(ctx context.Context, name string, body any, mapStatus func(int, []byte) *Error) (WorkflowResult, error) {
	op := name
	if name == "" {
		return WorkflowResult{}, validationError("workflow", "workflow name is required")
	}
	data, err := c.do(ctx, op, "wf/"+name, http.MethodPost, c.wfURL(name), body, mapStatus)
	if err != nil {
		return WorkflowResult{}, err
	}

	var res WorkflowResult
	if len(strings.TrimSpace(string(data))) == 0 {
		return res, nil
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return WorkflowResult{}, decodeError(op, err)
	}
	if res.Status != "" && !strings.EqualFold(res.Status, "success") {
		msg := res.Message
		if msg == "" {
			msg = res.Status
		}
		return WorkflowResult{}, &Error{Op: op, Kind: KindClient, Message: msg}
	}
	return res, nil
}

// CreateInstanceInput is the body of the create-instance workflow.
type CreateInstanceInput struct {
	Username    string  `json:"username"`
	Platform    string  `json:"platform"`
	Rate        float64 `json:"rate"`
	Price       float64 `json:"price"`
	BrandDealID string  `json:"branddeal"`
}

func (in CreateInstanceInput) validate() error {
	op := WorkflowCreateInstance
	switch {
	case strings.TrimSpace(in.BrandDealID) == "":
		return validationError(op, "Brand deal ID is required")
	case strings.TrimSpace(in.Username) == "":
		return validationError(op, "Creator username is required")
	case strings.TrimSpace(in.Platform) == "":
		return validationError(op, "Platform is required")
	case in.Rate < 0 || in.Price < 0:
		return validationError(op, "Rate and price must not be negative")
	}
	return nil
}

// CreateInstance runs the create-instance workflow and returns the new
// instance id when the workflow reports one.
func (c *Client) CreateInstance(ctx context.Context, in CreateInstanceInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	in.Username = strings.TrimSpace(in.Username)
	res, err := c.Workflow(ctx, WorkflowCreateInstance, in)
	if err != nil {
		return "", err
	}
	return res.ID("instance", "id", "_id"), nil
}

// UpdateInstanceInput is the body of the update-instance workflow.
// Nil fields are left unchanged.
type UpdateInstanceInput struct {
	InstanceID string   `json:"instance"`
	Status     *string  `json:"status,omitempty"`
	Platform   *string  `json:"platform,omitempty"`
	Rate       *float64 `json:"rate,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
	Username   *string  `json:"username,omitempty"`
}

func (in UpdateInstanceInput) validate() error {
	op := WorkflowUpdateInstance
	if strings.TrimSpace(in.InstanceID) == "" {
		return validationError(op, "Instance ID is required")
	}
	if (in.Rate != nil && *in.Rate < 0) || (in.Price != nil && *in.Price < 0) {
		return validationError(op, "Rate and price must not be negative")
	}
	return nil
}

func (c *Client) UpdateInstance(ctx context.Context, in UpdateInstanceInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	_, err := c.Workflow(ctx, WorkflowUpdateInstance, in)
	return err
}

// CreateBrandDealInput is the body of the create-branddeal workflow.
type CreateBrandDealInput struct {
	Title           string   `json:"title"`
	Deliverables    string   `json:"deliverables,omitempty"`
	Status          string   `json:"kabanStatus"`
	BrandID         string   `json:"brand"`
	BrandContactIDs []string `json:"brandContacts,omitempty"`
	AgencyID        string   `json:"agency,omitempty"`
	// AgencyMode requires AgencyID; the deal is booked through an agency.
	AgencyMode bool `json:"-"`
}

func (in CreateBrandDealInput) validate() error {
	op := WorkflowCreateBrandDeal
	switch {
	case strings.TrimSpace(in.Title) == "":
		return validationError(op, "Please enter a campaign title")
	case in.BrandID == "":
		return validationError(op, "Please select a brand")
	case in.AgencyMode && in.AgencyID == "":
		return validationError(op, "Please select an agency")
	case len(in.BrandContactIDs) == 0:
		return validationError(op, "Please select a contact")
	}
	return nil
}

// CreateBrandDeal runs the create-branddeal workflow and returns the new
// deal id when the workflow reports one.
func (c *Client) CreateBrandDeal(ctx context.Context, in CreateBrandDealInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	in.Title = strings.TrimSpace(in.Title)
	res, err := c.Workflow(ctx, WorkflowCreateBrandDeal, in)
	if err != nil {
		return "", err
	}
	return res.ID("branddeal", "id", "_id"), nil
}

// UpdateBrandDealInput is the body of the update-branddeal workflow.
// Empty fields are left unchanged.
type UpdateBrandDealInput struct {
	BrandDealID    string `json:"branddealId"`
	Title          string `json:"title,omitempty"`
	Deliverables   string `json:"deliverables,omitempty"`
	BrandID        string `json:"brand,omitempty"`
	BrandContactID string `json:"brandContact,omitempty"`
	Status         string `json:"kabanStatus,omitempty"`
}

func (c *Client) UpdateBrandDeal(ctx context.Context, in UpdateBrandDealInput) error {
	if strings.TrimSpace(in.BrandDealID) == "" {
		return validationError(WorkflowUpdateBrandDeal, "Brand deal ID is required")
	}
	_, err := c.Workflow(ctx, WorkflowUpdateBrandDeal, in)
	return err
}
