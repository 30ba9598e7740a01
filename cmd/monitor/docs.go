package main

//go:generate swag init -g cmd/monitor/main.go -o docs

// @title           Ops Monitor API
// @version         0.1.0
// @description     Operational records, profit/loss analytics, and performance assessments.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
