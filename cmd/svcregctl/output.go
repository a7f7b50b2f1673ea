package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"svcreg/internal/domain"
)

func writeJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printRecord(record domain.ServiceRecord, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(record)
	}
	fmt.Printf("%s\t%s", record.Name, record.URL)
	if record.HealthCheckURL != "" {
		fmt.Printf("\thealth=%s", record.HealthCheckURL)
	}
	fmt.Printf("\tlastHeartbeat=%d\n", record.LastHeartbeat)
	return nil
}

func printRecords(records map[string]domain.ServiceRecord, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(records)
	}
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("services=%d\n", len(records))
	for _, name := range names {
		if err := printRecord(records[name], false); err != nil {
			return err
		}
	}
	return nil
}

func printHealth(health domain.HealthStatus, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(health)
	}
	fmt.Printf("status=%s version=%s services=%d\n", health.Status, health.Version, health.Services)
	return nil
}
