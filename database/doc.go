// Package database provides a GORM-based database component and a
// keyset-pagination page fetcher that streams table rows through a paged
// cursor.
//
// Rows are read in ascending order of a unique key column; each page's
// continuation token is the key of its last row:
//
//	db, _ := database.Open(ctx, database.Config{Enabled: true, DSN: "app.db"}, log)
//	rows, _ := database.Rows(db, database.Keyset[User]{
//	    KeyOf: func(u User) string { return strconv.FormatInt(u.ID, 10) },
//	})
//	n, err := enumerator.Drain(ctx, rows, handle)
//
// Query errors are classified into AppErrors so that cursor.WithRetry
// retries only transient failures.
package database
