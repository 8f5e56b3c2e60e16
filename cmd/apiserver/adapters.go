package main

import (
	"github.com/turtacn/ClubDues/internal/app"
	"github.com/turtacn/ClubDues/internal/interfaces/http/handlers"
)

// healthCheckers returns a readiness check for every backend the runtime
// opened.  Kafka is not probed: event publishing degrades instead of failing
// requests.
func healthCheckers(rt *app.Runtime) []handlers.HealthChecker {
	checks := []handlers.HealthChecker{
		handlers.CheckFunc{ComponentName: "postgres", Fn: rt.DB.HealthCheck},
	}
	if rt.Redis != nil {
		checks = append(checks, handlers.CheckFunc{ComponentName: "redis", Fn: rt.Redis.Ping})
	}
	if rt.Storage != nil {
		checks = append(checks, handlers.CheckFunc{ComponentName: "minio", Fn: rt.Storage.HealthCheck})
	}
	return checks
}

//Personal.AI order the ending
