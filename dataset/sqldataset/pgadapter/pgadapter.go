/*
Package pgadapter provides an implementation of the Adapter interface
in the sqldataset package that works over a PostgreSQL database.
*/
package pgadapter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/graftml/graft/dataset/sqldataset"

	// Import of PostgreSQL driver
	_ "github.com/lib/pq"
)

// MaxSampleInsertionsPerStatement is the maximum number of samples
// that are allowed to be added with a single insert command with the
// AddSamples method of the adapter. Trying to add more will result
// in making more insertion commands
const MaxSampleInsertionsPerStatement = 10

type adapter struct {
	db *sql.DB
}

/*
New takes a PostgreSQL database connection URL and returns an Adapter
that works on the database or an error if it fails to connect to it.
*/
func New(url string) (sqldataset.Adapter, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	return &adapter{db}, nil
}

func (a *adapter) ColumnName(featureName string) (string, error) {
	if featureName == "id" {
		return "", fmt.Errorf(`'%s' is reserved and cannot be used as feature name`, featureName)
	}
	if strings.ContainsAny(featureName, `"`) {
		return "", fmt.Errorf(`feature name '%s' contains invalid character '"'`, featureName)
	}
	return featureName, nil
}

func (a *adapter) CreateSampleTable(ctx context.Context, discreteColumns, continuousColumns []string) error {
	var createStmtBuf bytes.Buffer
	createStmtBuf.WriteString("CREATE TABLE IF NOT EXISTS samples(")
	for _, c := range discreteColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" TEXT NULL, `, c))
	}
	for _, c := range continuousColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" DOUBLE PRECISION NULL, `, c))
	}
	createStmtBuf.WriteString(`"id" SERIAL PRIMARY KEY)`)
	createStmt, err := a.db.PrepareContext(ctx, createStmtBuf.String())
	if err != nil {
		return fmt.Errorf("preparing samples creation statement: %v", err)
	}
	defer createStmt.Close()
	_, err = createStmt.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("ensuring samples table exists: %v", err)
	}
	return nil
}

func (a *adapter) AddSamples(ctx context.Context, rawSamples []map[string]interface{}, discreteColumns, continuousColumns []string) (int, error) {
	columns := append(append([]string{}, discreteColumns...), continuousColumns...)
	if len(columns) == 0 {
		return 0, fmt.Errorf("no features to store")
	}
	inserted := 0
	for inserted < len(rawSamples) {
		chunkEnd := inserted + MaxSampleInsertionsPerStatement
		if chunkEnd > len(rawSamples) {
			chunkEnd = len(rawSamples)
		}
		chunk := rawSamples[inserted:chunkEnd]
		stmt, values := buildInsertStatement(chunk, columns)
		_, err := a.db.ExecContext(ctx, stmt, values...)
		if err != nil {
			return inserted, fmt.Errorf("inserting samples %d to %d: %v", inserted, chunkEnd-1, err)
		}
		inserted = chunkEnd
	}
	return inserted, nil
}

func (a *adapter) IterateOnSamples(ctx context.Context, discreteColumns, continuousColumns []string, lambda func(int, map[string]interface{}) (bool, error)) error {
	var queryBuffer bytes.Buffer
	queryBuffer.WriteString(`SELECT "`)
	queryBuffer.WriteString(strings.Join(discreteColumns, `", "`))
	if len(discreteColumns) > 0 && len(continuousColumns) > 0 {
		queryBuffer.WriteString(`", "`)
	}
	queryBuffer.WriteString(strings.Join(continuousColumns, `", "`))
	queryBuffer.WriteString(`" FROM samples ORDER BY id`)
	rows, err := a.db.QueryContext(ctx, queryBuffer.String())
	if err != nil {
		return err
	}
	defer rows.Close()
	for j := 0; rows.Next(); j++ {
		rawSample := make(map[string]interface{})
		discreteValues := make([]sql.NullString, len(discreteColumns))
		continuousValues := make([]sql.NullFloat64, len(continuousColumns))
		values := make([]interface{}, 0, len(discreteColumns)+len(continuousColumns))
		for i := range discreteValues {
			values = append(values, &discreteValues[i])
		}
		for i := range continuousValues {
			values = append(values, &continuousValues[i])
		}
		err = rows.Scan(values...)
		if err != nil {
			return err
		}
		for i, c := range discreteColumns {
			if discreteValues[i].Valid {
				rawSample[c] = discreteValues[i].String
			}
		}
		for i, c := range continuousColumns {
			if continuousValues[i].Valid {
				rawSample[c] = continuousValues[i].Float64
			}
		}
		ok, err := lambda(j, rawSample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return rows.Err()
}

func (a *adapter) CountSamples(ctx context.Context) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func buildInsertStatement(rawSamples []map[string]interface{}, columns []string) (string, []interface{}) {
	var stmtBuffer bytes.Buffer
	stmtBuffer.WriteString(`INSERT INTO samples ("`)
	stmtBuffer.WriteString(strings.Join(columns, `", "`))
	stmtBuffer.WriteString(`") VALUES `)
	values := make([]interface{}, 0, len(rawSamples)*len(columns))
	n := 1
	for i, rs := range rawSamples {
		if i > 0 {
			stmtBuffer.WriteString(", ")
		}
		stmtBuffer.WriteString("(")
		for j := range columns {
			if j > 0 {
				stmtBuffer.WriteString(", ")
			}
			stmtBuffer.WriteString(fmt.Sprintf("$%d", n))
			n++
		}
		stmtBuffer.WriteString(")")
		for _, c := range columns {
			values = append(values, rs[c])
		}
	}
	return stmtBuffer.String(), values
}
