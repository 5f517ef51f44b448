package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	gi "copper-intel-workers/internal/workers/crm-intel/gather-intelligence"
	hm "copper-intel-workers/internal/workers/crm-intel/handle-message"
	re "copper-intel-workers/internal/workers/crm-intel/resolve-entity"
	"copper-intel-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

// workerSchemas are the input schemas compiled into the worker binaries.
var workerSchemas = map[string]func() map[string]interface{}{
	hm.TaskType: hm.InputSchema,
	re.TaskType: re.InputSchema,
	gi.TaskType: gi.InputSchema,
}

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		err = runAdd(os.Args[2:])
	case "update":
		err = runUpdate(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "sync-schemas":
		err = runSyncSchemas(os.Args[2:])
	default:
		help()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAdd(args []string) error {
	cmd := flag.NewFlagSet("add", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	id := cmd.String("id", "", "Activity ID (e.g., resolve-entity)")
	displayName := cmd.String("displayName", "", "Display Name")
	description := cmd.String("description", "", "Description")
	category := cmd.String("category", "", "Category (e.g., crm-intel)")
	taskType := cmd.String("taskType", "", "Zeebe task type (e.g., crm-resolve-entity)")
	version := cmd.String("version", "1.0.0", "Version")
	status := cmd.String("status", "planned", "Implementation status (planned, in-progress, completed, verified)")
	timeout := cmd.String("timeout", "30s", "Job timeout")
	_ = cmd.Parse(args)

	if *id == "" || *displayName == "" || *category == "" || *taskType == "" {
		cmd.Usage()
		return fmt.Errorf("id, displayName, category and taskType are required for add")
	}

	reg, err := registry.LoadRegistry(*path)
	if errors.Is(err, fs.ErrNotExist) {
		reg = &registry.ActivityRegistry{Version: "1.0.0"}
	} else if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if _, exists := reg.FindByID(*id); exists {
		return fmt.Errorf("activity with ID %s already exists", *id)
	}

	activity := registry.Activity{
		ID:                   *id,
		DisplayName:          *displayName,
		Description:          *description,
		Category:             *category,
		Version:              *version,
		TaskType:             *taskType,
		ImplementationStatus: *status,
		ErrorCodes:           []string{},
		Timeout:              *timeout,
		Workflows:            []string{},
		Tags:                 []string{},
	}
	if schema, ok := workerSchemas[*taskType]; ok {
		activity.InputSchema = schema()
	}
	reg.Activities = append(reg.Activities, activity)

	if err := reg.Validate(); err != nil {
		return err
	}
	if err := registry.Save(reg, *path); err != nil {
		return err
	}
	fmt.Printf("Added activity: %s\n", *id)
	return nil
}

func runUpdate(args []string) error {
	cmd := flag.NewFlagSet("update", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	id := cmd.String("id", "", "Activity ID to update")
	field := cmd.String("field", "", "Field to update (status, version, displayName, description, category, taskType, timeout, retries)")
	value := cmd.String("value", "", "New value for the field")
	_ = cmd.Parse(args)

	if *id == "" || *field == "" || *value == "" {
		cmd.Usage()
		return fmt.Errorf("id, field and value are required for update")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	activity, ok := reg.FindByID(*id)
	if !ok {
		return fmt.Errorf("activity with ID %s not found", *id)
	}

	switch *field {
	case "status":
		activity.ImplementationStatus = *value
	case "version":
		activity.Version = *value
	case "displayName":
		activity.DisplayName = *value
	case "description":
		activity.Description = *value
	case "category":
		activity.Category = *value
	case "taskType":
		activity.TaskType = *value
	case "timeout":
		activity.Timeout = *value
	case "retries":
		retries, err := strconv.Atoi(*value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", *field)
	}

	if err := reg.Validate(); err != nil {
		return err
	}
	if err := registry.Save(reg, *path); err != nil {
		return err
	}
	fmt.Printf("Updated activity %s, field %s to %s\n", *id, *field, *value)
	return nil
}

func runValidate(args []string) error {
	cmd := flag.NewFlagSet("validate", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	_ = cmd.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	for taskType := range workerSchemas {
		if _, ok := reg.Find(taskType); !ok {
			fmt.Printf("warning: no activity registered for worker %s\n", taskType)
		}
	}
	fmt.Printf("Registry validation passed (%d activities).\n", len(reg.Activities))
	return nil
}

// runSyncSchemas overwrites each registered worker activity's input schema with the
// schema the worker ships with.
func runSyncSchemas(args []string) error {
	cmd := flag.NewFlagSet("sync-schemas", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	_ = cmd.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	synced := 0
	for taskType, schema := range workerSchemas {
		activity, ok := reg.Find(taskType)
		if !ok {
			fmt.Printf("skipping %s: not registered\n", taskType)
			continue
		}
		activity.InputSchema = schema()
		synced++
	}

	if err := reg.Validate(); err != nil {
		return err
	}
	if err := registry.Save(reg, *path); err != nil {
		return err
	}
	fmt.Printf("Synced %d input schemas.\n", synced)
	return nil
}

func help() {
	fmt.Println("Activity Registry Updater")
	fmt.Println("Usage:")
	fmt.Println("  registry-updater add -id <id> -displayName <name> -category <cat> -taskType <type> [-description <desc>] [-version <ver>] [-status <status>] [-timeout <dur>]")
	fmt.Println("  registry-updater update -id <id> -field <field> -value <value>")
	fmt.Println("  registry-updater validate")
	fmt.Println("  registry-updater sync-schemas")
	fmt.Println("All commands accept -path <registry file> (default configs/activity-registry.json).")
}
