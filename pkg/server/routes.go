package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
)

//nolint:funlen
func RegisterMigrationServiceRoutes(service contract.MigrationService, parser contract.HTTPRequestParser, app *fiber.App) {
	app.Post("/"+contract.MigrationPlansEndpoint, func(ctx *fiber.Ctx) error {
		var input contract.CreateMigrationPlan
		if err := parser.ParseBody(ctx, &input); err != nil {
			return err
		}

		output, err := service.CreateMigrationPlan(ctx.UserContext(), &input)
		if err != nil {
			return err
		}

		return ctx.Status(fiber.StatusCreated).JSON(output)
	})

	app.Get("/"+contract.MigrationPlansEndpoint, func(ctx *fiber.Ctx) error {
		var input contract.ListMigrationPlans
		if err := parser.ParseQuery(ctx, &input); err != nil {
			return err
		}

		output, err := service.ListMigrationPlans(ctx.UserContext(), &input)
		if err != nil {
			return err
		}

		return ctx.JSON(output)
	})

	app.Get("/"+contract.MigrationPlansEndpoint+"/:id", func(ctx *fiber.Ctx) error {
		output, err := service.GetMigrationPlan(ctx.UserContext(), ctx.Params("id"))
		if err != nil {
			return err
		}

		return ctx.JSON(output)
	})

	app.Delete("/"+contract.MigrationPlansEndpoint+"/:id", func(ctx *fiber.Ctx) error {
		if err := service.DeleteMigrationPlan(ctx.UserContext(), ctx.Params("id")); err != nil {
			return err
		}

		return ctx.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/"+contract.MigrationPlansEndpoint+"/:id/run", func(ctx *fiber.Ctx) error {
		var input contract.RunMigrationPlan

		// The body is optional, dry_run defaults to false.
		if len(ctx.Body()) > 0 {
			if err := parser.ParseBody(ctx, &input); err != nil {
				return err
			}
		}

		output, err := service.RunMigrationPlan(ctx.UserContext(), ctx.Params("id"), &input)
		if err != nil {
			return err
		}

		return ctx.Status(fiber.StatusAccepted).JSON(output)
	})

	app.Get("/"+contract.TasksEndpoint, func(ctx *fiber.Ctx) error {
		var input contract.ListTasks
		if err := parser.ParseQuery(ctx, &input); err != nil {
			return err
		}

		output, err := service.ListTasks(ctx.UserContext(), &input)
		if err != nil {
			return err
		}

		return ctx.JSON(output)
	})

	app.Get("/"+contract.TasksEndpoint+"/:id", func(ctx *fiber.Ctx) error {
		output, err := service.GetTask(ctx.UserContext(), ctx.Params("id"))
		if err != nil {
			return err
		}

		return ctx.JSON(output)
	})

	app.Patch("/"+contract.TasksEndpoint+"/:id", func(ctx *fiber.Ctx) error {
		var input contract.UpdateTask
		if err := parser.ParseBody(ctx, &input); err != nil {
			return err
		}

		output, err := service.UpdateTask(ctx.UserContext(), ctx.Params("id"), &input)
		if err != nil {
			return err
		}

		return ctx.JSON(output)
	})

	app.Get("/"+contract.Pulp2ContentEndpoint, func(ctx *fiber.Ctx) error {
		var input contract.SearchPulp2Content
		if err := parser.ParseQuery(ctx, &input); err != nil {
			return err
		}

		output, err := service.SearchPulp2Content(ctx.UserContext(), &input)
		if err != nil {
			return err
		}

		return ctx.JSON(output)
	})

	app.Use(func(ctx *fiber.Ctx) error {
		return contract.NewError(
			contract.ErrorCodeEndpointNotFound,
			"Unknown endpoint "+ctx.Method()+" "+ctx.OriginalURL(),
		)
	})
}
