package email

import (
	"fmt"
	"html"
	"strings"

	"hikelog/internal/models"
)

func (s *Service) generateReminderHTML(trip *models.Trip, gear []models.Gear) string {
	var items strings.Builder
	for _, g := range gear {
		items.WriteString(fmt.Sprintf("                <li>%s <span style=\"color: #6c757d;\">(%s)</span></li>\n",
			html.EscapeString(g.Name), html.EscapeString(g.Category)))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Review your gear</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f8f9fa;
        }
        .container {
            background-color: white;
            padding: 40px;
            border-radius: 12px;
            box-shadow: 0 2px 10px rgba(0, 0, 0, 0.1);
        }
        .title {
            font-size: 24px;
            color: #2d5e3e;
            margin-bottom: 20px;
        }
        .cta-button {
            display: inline-block;
            background-color: #2d5e3e;
            color: white;
            padding: 12px 24px;
            text-decoration: none;
            border-radius: 6px;
            font-weight: 500;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="title">%s on %s</div>
        <p>You carried %d piece(s) of gear on this trip:</p>
        <ul>
%s        </ul>
        <p>Rate them while the trip is still fresh. Your ratings feed each item's performance history.</p>
        <p style="text-align: center; margin: 30px 0;">
            <a href="%s" class="cta-button">Review gear</a>
        </p>
    </div>
</body>
</html>`, html.EscapeString(trip.Name), trip.DateString(), len(gear), items.String(), s.reviewURL(trip))
}

func (s *Service) generateReminderText(trip *models.Trip, gear []models.Gear) string {
	var items strings.Builder
	for _, g := range gear {
		items.WriteString(fmt.Sprintf("- %s (%s)\n", g.Name, g.Category))
	}

	return fmt.Sprintf(`%s on %s

You carried %d piece(s) of gear on this trip:
%s
Rate them while the trip is still fresh:
%s
`, trip.Name, trip.DateString(), len(gear), items.String(), s.reviewURL(trip))
}
