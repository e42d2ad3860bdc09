package addresslookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/myhttpclient"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
)

const (
	postcodesBaseURL  = "https://api.postcodes.io"
	minPostcodeLength = 5
	maxSuggestions    = 5
)

type service struct {
	baseURL    string
	httpClient myhttpclient.HTTPSender
	logger     mylog.Logger
}

func newService(baseURL string, httpClient myhttpclient.HTTPSender, logger mylog.Logger) *service {
	return &service{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (s *service) lookup(c context.Context, postcode string) ([]Address, error) {
	postcode = strings.TrimSpace(postcode)
	if len(postcode) < minPostcodeLength {
		return nil, myerrors.NewInvalidInputErrorf("Postcode must have at least %d characters", minPostcodeLength)
	}

	candidates, err := s.autocomplete(c, postcode)
	if err != nil {
		return nil, err
	}
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}

	addresses := []Address{}
	for _, candidate := range candidates {
		address, err := s.resolve(c, candidate)
		if err != nil {
			// skip this one, the others may still be useful
			s.logger.Log(c, postcode, mylog.SeverityWarn, "Error resolving postcode %s: %s", candidate, err)
			continue
		}
		addresses = append(addresses, address)
	}

	return addresses, nil
}

func (s *service) autocomplete(c context.Context, postcode string) ([]string, error) {
	httpStatus, respBody, err := s.httpClient.Send(c, http.MethodGet, fmt.Sprintf("%s/postcodes/%s/autocomplete", s.baseURL, url.PathEscape(postcode)), nil)
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error autocompleting postcode %s: %s", postcode, err))
	}
	if httpStatus != http.StatusOK {
		return nil, myerrors.NewInternalError(fmt.Errorf("error autocompleting postcode %s: status %d", postcode, httpStatus))
	}

	resp := autocompleteResponse{}
	err = json.Unmarshal(respBody, &resp)
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error parsing autocomplete response: %s", err))
	}

	return resp.Result, nil
}

func (s *service) resolve(c context.Context, postcode string) (Address, error) {
	httpStatus, respBody, err := s.httpClient.Send(c, http.MethodGet, fmt.Sprintf("%s/postcodes/%s", s.baseURL, url.PathEscape(postcode)), nil)
	if err != nil {
		return Address{}, err
	}
	if httpStatus != http.StatusOK {
		return Address{}, fmt.Errorf("status %d", httpStatus)
	}

	resp := postcodeResponse{}
	err = json.Unmarshal(respBody, &resp)
	if err != nil {
		return Address{}, fmt.Errorf("error parsing postcode response: %s", err)
	}

	return resp.Result.toAddress(), nil
}
