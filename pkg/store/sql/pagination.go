package sql

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/utils"
)

const defaultMaxResults = 100

type PageToken struct {
	Offset int32 `json:"offset"`
}

func getOffset(pageToken string) (int, *contract.Error) {
	if pageToken != "" {
		var token PageToken
		if err := json.NewDecoder(
			base64.NewDecoder(
				base64.StdEncoding,
				strings.NewReader(pageToken),
			),
		).Decode(&token); err != nil {
			return 0, contract.NewErrorWith(
				contract.ErrorCodeInvalidParameterValue,
				fmt.Sprintf("invalid page_token: %q", pageToken),
				err,
			)
		}

		if token.Offset < 0 {
			return 0, contract.NewError(
				contract.ErrorCodeInvalidParameterValue,
				fmt.Sprintf("invalid page_token: %q", pageToken),
			)
		}

		return int(token.Offset), nil
	}

	return 0, nil
}

func getMaxResults(maxResults int) int {
	if maxResults <= 0 {
		return defaultMaxResults
	}

	return maxResults
}

func mkNextPageToken(resultLength, maxResults, offset int) (*string, *contract.Error) {
	var nextPageToken *string

	if resultLength == maxResults {
		token, err := json.Marshal(PageToken{
			Offset: int32(offset + maxResults), //nolint:gosec
		})
		if err != nil {
			return nil, contract.NewErrorWith(
				contract.ErrorCodeInternalError,
				"error encoding 'next_page_token' value",
				err,
			)
		}

		nextPageToken = utils.PtrTo(base64.StdEncoding.EncodeToString(token))
	}

	return nextPageToken, nil
}
