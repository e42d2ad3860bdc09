package mystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = 3 * time.Second

// pgExecutor is satisfied by both *pgxpool.Pool and pgx.Tx
type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// postgresStore keeps every entity as a jsonb document in a table per kind
type postgresStore[T any] struct {
	pool  *pgxpool.Pool
	kind  string
	table string
}

func newPostgresStore[T any](c context.Context, databaseURL string) (*postgresStore[T], func(), error) {
	pool, err := pgxpool.New(c, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating postgres pool: %s", err)
	}

	kind := kindOf[T]()
	s := &postgresStore[T]{
		pool:  pool,
		kind:  kind,
		table: pgx.Identifier{strings.ToLower(kind)}.Sanitize(),
	}

	err = s.migrate(c)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	return s, func() {
		pool.Close()
	}, nil
}

func (s *postgresStore[T]) migrate(c context.Context) error {
	c, cancel := context.WithTimeout(c, 10*time.Second)
	defer cancel()

	_, err := s.pool.Exec(c, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			uid        TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table))
	if err != nil {
		return fmt.Errorf("error creating table for %s: %s", s.kind, err)
	}
	return nil
}

type postgresTransaction struct {
	tx pgx.Tx
}

func (s *postgresStore[T]) executor(c context.Context) (pgExecutor, bool) {
	t, ok := c.Value(ctxTransactionKey{}).(postgresTransaction)
	if ok {
		return t.tx, true
	}
	return s.pool, false
}

func (s *postgresStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	if _, ok := c.Value(ctxTransactionKey{}).(postgresTransaction); ok {
		// nested: join the outer transaction
		return f(c)
	}

	tx, err := s.pool.Begin(c)
	if err != nil {
		return fmt.Errorf("error starting transaction on %s: %s", s.kind, err)
	}

	ctx := context.WithValue(c, ctxTransactionKey{}, postgresTransaction{tx: tx})

	err = f(ctx)
	if err != nil {
		rollbackErr := tx.Rollback(c)
		if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w (rollback failed: %s)", err, rollbackErr)
		}
		return err
	}

	err = tx.Commit(c)
	if err != nil {
		return fmt.Errorf("error committing transaction on %s: %s", s.kind, err)
	}
	return nil
}

func (s *postgresStore[T]) Put(c context.Context, uid string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error marshalling entity %s with uid %s: %s", s.kind, uid, err)
	}

	exec, _ := s.executor(c)
	c, cancel := context.WithTimeout(c, queryTimeout)
	defer cancel()

	_, err = exec.Exec(c, fmt.Sprintf(`
		INSERT INTO %s (uid, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (uid) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`, s.table), uid, data)
	if err != nil {
		return fmt.Errorf("error storing entity %s with uid %s: %s", s.kind, uid, err)
	}
	return nil
}

func (s *postgresStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	var value T

	exec, transactional := s.executor(c)
	c, cancel := context.WithTimeout(c, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT data FROM %s WHERE uid = $1`, s.table)
	if transactional {
		// lock the row until the transaction completes
		query += " FOR UPDATE"
	}

	var data []byte
	err := exec.QueryRow(c, query, uid).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("error fetching entity %s with uid %s: %s", s.kind, uid, err)
	}

	err = json.Unmarshal(data, &value)
	if err != nil {
		return value, false, fmt.Errorf("error unmarshalling entity %s with uid %s: %s", s.kind, uid, err)
	}
	return value, true, nil
}

func (s *postgresStore[T]) List(c context.Context) ([]T, error) {
	return s.Query(c, nil, "")
}

func (s *postgresStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	query, args, err := s.composeQuery(filters, orderByField)
	if err != nil {
		return nil, err
	}

	exec, _ := s.executor(c)
	c, cancel := context.WithTimeout(c, queryTimeout)
	defer cancel()

	rows, err := exec.Query(c, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying entities %s: %s", s.kind, err)
	}
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		var data []byte
		err = rows.Scan(&data)
		if err != nil {
			return nil, fmt.Errorf("error scanning entity %s: %s", s.kind, err)
		}
		var value T
		err = json.Unmarshal(data, &value)
		if err != nil {
			return nil, fmt.Errorf("error unmarshalling entity %s: %s", s.kind, err)
		}
		result = append(result, value)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating entities %s: %s", s.kind, err)
	}

	return result, nil
}

func (s *postgresStore[T]) composeQuery(filters []Filter, orderByField string) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("SELECT data FROM %s", s.table))

	args := []any{}
	for idx, f := range filters {
		operator, err := sqlOperator(f.Compare)
		if err != nil {
			return "", nil, err
		}
		column, err := jsonColumn[T](f.Field)
		if err != nil {
			return "", nil, err
		}
		arg, cast := sqlArgument(f.Value)
		args = append(args, arg)

		if idx == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(fmt.Sprintf("(%s)%s %s $%d", column, cast, operator, len(args)))
	}

	if orderByField != "" {
		fieldName, descending := parseOrder(orderByField)
		column, err := jsonColumn[T](fieldName)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(fmt.Sprintf(" ORDER BY (%s)%s", column, castForField[T](fieldName)))
		if descending {
			sb.WriteString(" DESC")
		}
	}

	return sb.String(), args, nil
}

func sqlOperator(compare string) (string, error) {
	switch compare {
	case "=", "==":
		return "=", nil
	case "!=":
		return "<>", nil
	case "<", "<=", ">", ">=":
		return compare, nil
	default:
		return "", fmt.Errorf("unsupported comparison '%s'", compare)
	}
}

// jsonColumn maps a go field name onto the json key the entity is marshalled with
func jsonColumn[T any](fieldName string) (string, error) {
	t := reflect.TypeOf(new(T)).Elem()
	if t.Kind() != reflect.Struct {
		return "", fmt.Errorf("kind %s is not a struct", t)
	}
	sf, found := t.FieldByName(fieldName)
	if !found {
		return "", fmt.Errorf("kind %s has no field %s", t, fieldName)
	}
	name := sf.Name
	tag := sf.Tag.Get("json")
	if tag != "" && tag != "-" {
		if tagName := strings.Split(tag, ",")[0]; tagName != "" {
			name = tagName
		}
	}
	return fmt.Sprintf("data->>'%s'", strings.ReplaceAll(name, "'", "''")), nil
}

func castForField[T any](fieldName string) string {
	t := reflect.TypeOf(new(T)).Elem()
	sf, found := t.FieldByName(fieldName)
	if !found {
		return ""
	}
	_, cast := sqlArgument(reflect.Zero(sf.Type).Interface())
	return cast
}

// sqlArgument converts named types onto their basic type and returns the matching cast of the jsonb text value
func sqlArgument(value any) (any, string) {
	if t, ok := value.(time.Time); ok {
		return t, "::timestamptz"
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), "::boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), "::bigint"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), "::bigint"
	case reflect.Float32, reflect.Float64:
		return v.Float(), "::double precision"
	case reflect.String:
		return v.String(), ""
	default:
		return value, ""
	}
}
