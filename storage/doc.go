// Package storage streams S3 bucket listings through a paged cursor.
//
// Each ListObjectsV2 response becomes one page and its continuation token
// becomes the page token, so a listing of millions of keys is consumed with
// bounded memory and read-ahead:
//
//	client, _ := storage.NewClient(ctx, storage.Config{Enabled: true, Bucket: "logs"}, log)
//	n, err := enumerator.Drain(ctx, client.Objects(storage.ListOptions{Prefix: "2024/"}),
//	    func(o storage.Object) error {
//	        fmt.Println(o.Key, o.Size)
//	        return nil
//	    })
package storage
