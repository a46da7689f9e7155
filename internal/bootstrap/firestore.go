package bootstrap

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// InitFirestore opens the dashboard config store. FIRESTORE_EMULATOR_HOST is
// honoured by the client library.
func InitFirestore(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client for %q: %w", projectID, err)
	}
	return client, nil
}
