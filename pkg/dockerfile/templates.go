package dockerfile

import (
	"fmt"
	"strings"
)

// render produces the Dockerfile body for a detection plan. Every
// template starts with the sentinel line.
func render(p plan, appPort int) string {
	var b strings.Builder
	b.WriteString(Sentinel + "\n")

	switch p.kind {
	case KindNodeBun:
		b.WriteString("FROM oven/bun:1\n")
		b.WriteString("WORKDIR /app\n")
		b.WriteString("COPY . .\n")
		b.WriteString("RUN bun install\n")
		if p.hasBuild {
			b.WriteString("RUN bun run build\n")
		}
		fmt.Fprintf(&b, "EXPOSE %d\n", appPort)
		b.WriteString(`CMD ["bun", "run", "start"]` + "\n")

	case KindNodeYarn:
		b.WriteString("FROM node:20-alpine\n")
		b.WriteString("WORKDIR /app\n")
		b.WriteString("RUN corepack enable\n")
		b.WriteString("COPY package.json yarn.lock* ./\n")
		b.WriteString("RUN yarn install\n")
		b.WriteString("COPY . .\n")
		if p.hasBuild {
			b.WriteString("RUN yarn build\n")
		}
		fmt.Fprintf(&b, "EXPOSE %d\n", appPort)
		b.WriteString(`CMD ["yarn", "start"]` + "\n")

	case KindNodePnpm:
		b.WriteString("FROM node:20-alpine\n")
		b.WriteString("WORKDIR /app\n")
		b.WriteString("RUN corepack enable\n")
		b.WriteString("COPY package.json pnpm-lock.yaml* ./\n")
		b.WriteString("RUN pnpm install\n")
		b.WriteString("COPY . .\n")
		if p.hasBuild {
			b.WriteString("RUN pnpm run build\n")
		}
		fmt.Fprintf(&b, "EXPOSE %d\n", appPort)
		b.WriteString(`CMD ["pnpm", "start"]` + "\n")

	case KindNodeNPM:
		b.WriteString("FROM node:20-alpine\n")
		b.WriteString("WORKDIR /app\n")
		b.WriteString("COPY package*.json ./\n")
		b.WriteString("RUN npm install\n")
		b.WriteString("COPY . .\n")
		if p.hasBuild {
			b.WriteString("RUN npm run build\n")
		}
		fmt.Fprintf(&b, "EXPOSE %d\n", appPort)
		b.WriteString(`CMD ["npm", "start"]` + "\n")

	case KindPython:
		b.WriteString("FROM python:3.12-slim\n")
		b.WriteString("WORKDIR /app\n")
		b.WriteString("COPY requirements.txt ./\n")
		b.WriteString("RUN pip install --no-cache-dir -r requirements.txt\n")
		b.WriteString("COPY . .\n")
		fmt.Fprintf(&b, "EXPOSE %d\n", appPort)
		fmt.Fprintf(&b, "CMD [\"python\", %q]\n", p.entry)

	case KindGo:
		b.WriteString("FROM golang:1.25-alpine AS build\n")
		b.WriteString("WORKDIR /src\n")
		b.WriteString("COPY go.mod go.sum* ./\n")
		b.WriteString("RUN go mod download\n")
		b.WriteString("COPY . .\n")
		b.WriteString("RUN CGO_ENABLED=0 go build -o /out/app .\n")
		b.WriteString("\n")
		b.WriteString("FROM alpine:3.20\n")
		b.WriteString("WORKDIR /app\n")
		b.WriteString("COPY --from=build /out/app ./app\n")
		fmt.Fprintf(&b, "EXPOSE %d\n", appPort)
		b.WriteString(`CMD ["./app"]` + "\n")
	}

	return b.String()
}
