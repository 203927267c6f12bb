package sql

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/query"
	"github.com/goosemania/pulp-2to3-migrate/pkg/query/parser"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

var pulp2ContentOrder = regexp.MustCompile(
	`^(?:pulp2content\.)?(pulp2_id|pulp2_content_type_id|pulp2_last_updated|pulp2_storage_path|downloaded|pulp_created)` +
		`(?i:\s+(ASC|DESC))?$`,
)

// likeOperands lowers both sides of ILIKE on databases without it.
func likeOperands(dialect, column, comparison string, value any) (string, string, any) {
	if comparison != "ILIKE" || dialect == "postgres" {
		return column, comparison, value
	}

	if str, ok := value.(string); ok {
		value = strings.ToLower(str)
	}

	return fmt.Sprintf("LOWER(%s)", column), "LIKE", value
}

//nolint:funlen,cyclop
func applyFilters(store *Store, transaction *gorm.DB, filter string) *contract.Error {
	filterConditions, err := query.ParseFilter(filter)
	if err != nil {
		return contract.NewErrorWith(
			contract.ErrorCodeInvalidParameterValue,
			"error parsing search filter",
			err,
		)
	}

	logrus.Debugf("Filter conditions: %#v", filterConditions)

	dialect := store.db.Dialector.Name()

	for index, condition := range filterConditions {
		key := condition.Key
		comparison := condition.Operator.String()
		value := condition.Value

		switch condition.Identifier {
		case parser.Pulp2Content:
			if key == parser.Migrated {
				// migrated = true and migrated != false both mean linked content.
				linked, _ := value.(bool)
				if (condition.Operator == parser.Equals) == linked {
					transaction.Where("pulp2_content.pulp3_content_id IS NOT NULL")
				} else {
					transaction.Where("pulp2_content.pulp3_content_id IS NULL")
				}

				continue
			}

			column, comparison, value := likeOperands(dialect, "pulp2_content."+key, comparison, value)
			transaction.Where(fmt.Sprintf("%s %s ?", column, comparison), value)
		case parser.Rpm, parser.Erratum:
			// JOIN (
			//   SELECT pulp2content_id
			//   FROM pulp2_rpms
			//   WHERE key comparison value
			// ) AS filter_0 ON pulp2_content.pulp_id = filter_0.pulp2content_id
			var kind any = &model.Pulp2Rpm{}
			if condition.Identifier == parser.Erratum {
				kind = &model.Pulp2Erratum{}
			}

			column, comparison, value := likeOperands(dialect, key, comparison, value)
			table := fmt.Sprintf("filter_%d", index)

			transaction.Joins(
				fmt.Sprintf("JOIN (?) AS %s ON pulp2_content.pulp_id = %s.pulp2content_id", table, table),
				store.db.Select("pulp2content_id").Where(fmt.Sprintf("%s %s ?", column, comparison), value).Model(kind),
			)
		}
	}

	return nil
}

func applyOrderBy(transaction *gorm.DB, orderBy []string) *contract.Error {
	lastUpdatedOrder := false

	for _, orderByClause := range orderBy {
		components := pulp2ContentOrder.FindStringSubmatch(strings.TrimSpace(orderByClause))
		if components == nil {
			return contract.NewError(
				contract.ErrorCodeInvalidParameterValue,
				"invalid order by clause: "+orderByClause,
			)
		}

		if components[1] == "pulp2_last_updated" {
			lastUpdatedOrder = true
		}

		transaction.Order(clause.OrderByColumn{
			Column: clause.Column{
				Table: "pulp2_content",
				Name:  components[1],
			},
			Desc: strings.EqualFold(components[2], "DESC"),
		})
	}

	if !lastUpdatedOrder {
		transaction.Order("pulp2_content.pulp2_last_updated")
	}

	transaction.Order("pulp2_content.pulp_id")

	return nil
}

func (s Store) SearchPulp2Content(
	ctx context.Context, filter string, orderBy []string, maxResults int, pageToken string,
) (*store.PagedList[model.Pulp2Content], *contract.Error) {
	maxResults = getMaxResults(maxResults)
	transaction := s.db.WithContext(ctx).Model(&model.Pulp2Content{})

	// MaxResults
	transaction.Limit(maxResults)

	// PageToken
	offset, contractError := getOffset(pageToken)
	if contractError != nil {
		return nil, contractError
	}

	transaction.Offset(offset)

	// Filter
	contractError = applyFilters(&s, transaction, filter)
	if contractError != nil {
		return nil, contractError
	}

	// OrderBy
	contractError = applyOrderBy(transaction, orderBy)
	if contractError != nil {
		return nil, contractError
	}

	var contents []model.Pulp2Content

	transaction.Preload("Pulp3Content").Find(&contents)

	if transaction.Error != nil {
		return nil, contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			"failed to search pulp 2 content",
			transaction.Error,
		)
	}

	nextPageToken, contractError := mkNextPageToken(len(contents), maxResults, offset)
	if contractError != nil {
		return nil, contractError
	}

	return &store.PagedList[model.Pulp2Content]{
		Items:         contents,
		NextPageToken: nextPageToken,
	}, nil
}
