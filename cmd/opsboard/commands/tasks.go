package commands

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-opsboard/hooks"
	"github.com/goliatone/go-opsboard/model"
)

func (c *CLI) newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and edit tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := c.session()
			if err != nil {
				return err
			}
			h := container.Hooks()
			ctx := cmd.Context()

			status, _ := cmd.Flags().GetString("status")
			property, _ := cmd.Flags().GetString("property")

			switch {
			case status != "":
				return printResult(cmd.OutOrStdout(), h.TasksByStatus(model.TaskStatus(status)).Use(ctx))
			case property != "":
				return printResult(cmd.OutOrStdout(), h.TasksByProperty(property).Use(ctx))
			default:
				return printResult(cmd.OutOrStdout(), h.Tasks().Use(ctx))
			}
		},
	}
	cmd.Flags().String("status", "", "Only tasks with this status")
	cmd.Flags().String("property", "", "Only tasks for this property ID")

	cmd.AddCommand(c.newTaskCreateCmd(), c.newTaskUpdateCmd(), c.newTaskDeleteCmd())
	return cmd
}

func (c *CLI) newTaskCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := c.session()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			in := model.TaskInput{}
			in.Title, _ = flags.GetString("title")
			in.Description, _ = flags.GetString("description")
			in.PropertyID, _ = flags.GetString("property")
			in.AssignedTo, _ = flags.GetString("assign")
			in.DueDate, _ = flags.GetString("due")
			category, _ := flags.GetString("category")
			priority, _ := flags.GetString("priority")
			in.Category = model.TaskCategory(category)
			in.Priority = model.TaskPriority(priority)

			err = container.Hooks().CreateTask.Mutate(cmd.Context(), in)
			return printAction(cmd.OutOrStdout(), err, "Task created")
		},
	}
	cmd.Flags().String("title", "", "Task title (required)")
	cmd.Flags().String("description", "", "Task description")
	cmd.Flags().String("property", "", "Property ID")
	cmd.Flags().String("category", "", "Task category")
	cmd.Flags().String("priority", "", "Task priority (default medium)")
	cmd.Flags().String("assign", "", "Assignee")
	cmd.Flags().String("due", "", "Due date, YYYY-MM-DD")
	return cmd
}

func (c *CLI) newTaskUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := c.session()
			if err != nil {
				return err
			}

			var update model.TaskUpdate
			flags := cmd.Flags()
			if flags.Changed("status") {
				v, _ := flags.GetString("status")
				status := model.TaskStatus(v)
				update.Status = &status
			}
			if flags.Changed("priority") {
				v, _ := flags.GetString("priority")
				priority := model.TaskPriority(v)
				update.Priority = &priority
			}
			if flags.Changed("title") {
				v, _ := flags.GetString("title")
				update.Title = &v
			}
			if flags.Changed("assign") {
				v, _ := flags.GetString("assign")
				update.AssignedTo = &v
			}

			vars := hooks.TaskUpdateVars{TaskID: args[0], Update: update}
			err = container.Hooks().UpdateTask.Mutate(cmd.Context(), vars)
			return printAction(cmd.OutOrStdout(), err, "Task updated")
		},
	}
	cmd.Flags().String("status", "", "New status")
	cmd.Flags().String("priority", "", "New priority")
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("assign", "", "New assignee")
	return cmd
}

func (c *CLI) newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := c.session()
			if err != nil {
				return err
			}
			err = container.Hooks().DeleteTask.Mutate(cmd.Context(), args[0])
			return printAction(cmd.OutOrStdout(), err, "Task deleted")
		},
	}
}
