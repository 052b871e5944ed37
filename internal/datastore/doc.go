// Package datastore is the request/response boundary between irrigation
// resources and the remote controller service.
//
// Resources never build URLs or speak HTTP themselves. They hand an endpoint
// template such as "device/{id}" and a set of arguments to a Store, which
// interpolates the template, performs the request and returns the raw JSON.
//
// HTTPStore is the production implementation:
//
//	store, err := datastore.NewHTTPStore(datastore.HTTPStoreOptions{
//	    BaseURL: "https://api.example.com/1/public/",
//	    Token:   token,
//	    Timeout: 10 * time.Second,
//	})
//	raw, err := store.Fetch(ctx, "device/{id}", datastore.Args{"id": id})
//
// Non-2xx responses are returned as *StatusError, which matches
// ErrRequestFailed under errors.Is. There is no retry or backoff; callers
// decide what to do with a failure.
package datastore
