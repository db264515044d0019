package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/BerylCAtieno/storycraft-agent/internal/jsonextract"
	"github.com/BerylCAtieno/storycraft-agent/internal/models"
)

var ErrIncompleteProfile = errors.New("incomplete validation response received")

const notAvailable = "NA"

// ValidateCustomerRaw returns the model text for the validation prompt.
func (p *Pipeline) ValidateCustomerRaw(ctx context.Context, customerDetails string) (string, error) {
	if blank(customerDetails) {
		return "", invalid("customer details are required")
	}
	return p.Complete(ctx, StepValidateCustomer, CustomerPrompt(customerDetails))
}

func (p *Pipeline) ValidateCustomer(ctx context.Context, customerDetails string) (Outcome[models.CustomerProfile], error) {
	text, err := p.ValidateCustomerRaw(ctx, customerDetails)
	if err != nil {
		return Outcome[models.CustomerProfile]{}, err
	}
	out := ParseCustomerProfile(text, customerDetails)
	if out.IsFallback() {
		p.log.Warn("customer validation fell back to text mining", "reason", out.Reason)
	}
	if !out.Value.Complete() {
		return out, ErrIncompleteProfile
	}
	return out, nil
}

// ParseCustomerProfile reads the validation response. When no JSON can be
// recovered the profile is mined from the prose with confidence forced low.
func ParseCustomerProfile(text, customerDetails string) Outcome[models.CustomerProfile] {
	obj, err := jsonextract.Extract(text)
	if err != nil {
		return Fallback(MineCustomerProfile(text, customerDetails), err.Error())
	}

	profile := models.CustomerProfile{
		CompanyName:    stringField(obj, "companyName"),
		Region:         stringField(obj, "region"),
		Industry:       stringField(obj, "industry"),
		Confidence:     models.ParseConfidence(stringField(obj, "confidence")),
		AdditionalInfo: stringField(obj, "additionalInfo"),
		Suggestions:    stringField(obj, "suggestions"),
	}
	if profile.Confidence == models.ConfidenceLow {
		for _, f := range []*string{&profile.CompanyName, &profile.Region, &profile.Industry, &profile.AdditionalInfo} {
			if blank(*f) {
				*f = notAvailable
			}
		}
	}
	return Parsed(profile)
}

// MineCustomerProfile is the best-effort text miner used when the response
// is not JSON.
func MineCustomerProfile(text, customerDetails string) models.CustomerProfile {
	return models.CustomerProfile{
		CompanyName:    MineField(text, "company", strings.TrimSpace(customerDetails)),
		Region:         MineField(text, "region", "Unknown"),
		Industry:       MineField(text, "industry", "Unknown"),
		Confidence:     models.ConfidenceLow,
		AdditionalInfo: strings.TrimSpace(text),
		Suggestions:    "Please provide more specific company information",
	}
}
