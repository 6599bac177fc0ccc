// Package mongo connects to MongoDB through go.mongodb.org/mongo-driver/v2.
//
// New retries until the deployment answers a ping and returns the configured
// *mongo.Database; Healthcheck exposes a readiness probe for it.
package mongo
