package export

import (
	"fmt"
	"strings"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
)

const nextConfig = `/** @type {import('next').NextConfig} */
const nextConfig = {
  output: 'export',
  trailingSlash: true,
};

export default nextConfig;
`

const tsConfig = `{
  "compilerOptions": {
    "target": "ES2017",
    "lib": ["dom", "dom.iterable", "esnext"],
    "allowJs": true,
    "skipLibCheck": true,
    "strict": true,
    "noEmit": true,
    "esModuleInterop": true,
    "module": "esnext",
    "moduleResolution": "bundler",
    "resolveJsonModule": true,
    "isolatedModules": true,
    "jsx": "preserve",
    "incremental": true,
    "paths": { "@/*": ["./*"] }
  },
  "include": ["**/*.ts", "**/*.tsx"],
  "exclude": ["node_modules"]
}
`

const gitignore = `node_modules/
.next/
out/
.env*.local
`

const envExample = `# Site-level environment variables
NEXT_PUBLIC_SITE_URL=
`

func packageJSON(slug string) string {
	name := slug
	if name == "" {
		name = "generated-site"
	}
	return fmt.Sprintf(`{
  "name": %q,
  "version": "0.1.0",
  "private": true,
  "scripts": {
    "dev": "next dev",
    "build": "next build",
    "start": "next start"
  },
  "dependencies": {
    "next": "14.2.5",
    "react": "^18",
    "react-dom": "^18"
  },
  "devDependencies": {
    "@types/node": "^20",
    "@types/react": "^18",
    "typescript": "^5"
  }
}
`, name)
}

func layoutFile(siteName string) string {
	var b strings.Builder
	b.WriteString("import './globals.css';\n\n")
	b.WriteString("export const metadata = {\n")
	fmt.Fprintf(&b, "  title: '%s',\n", escapeTSString(siteName))
	b.WriteString("};\n\n")
	b.WriteString("export default function RootLayout({ children }: { children: React.ReactNode }) {\n")
	b.WriteString("  return (\n")
	b.WriteString("    <html lang=\"en\">\n")
	b.WriteString("      <body>{children}</body>\n")
	b.WriteString("    </html>\n")
	b.WriteString("  );\n")
	b.WriteString("}\n")
	return b.String()
}

func globalStyles(brand domain.BrandConfig) string {
	var b strings.Builder
	b.WriteString(":root {\n")
	fmt.Fprintf(&b, "  --color-primary: %s;\n", cssValue(brand.PrimaryColor))
	fmt.Fprintf(&b, "  --color-secondary: %s;\n", cssValue(brand.SecondaryColor))
	fmt.Fprintf(&b, "  --color-accent: %s;\n", cssValue(brand.AccentColor))
	fmt.Fprintf(&b, "  --font-family: %s;\n", cssValue(brand.FontFamily))
	b.WriteString("}\n\n")
	b.WriteString(`* {
  margin: 0;
  padding: 0;
  box-sizing: border-box;
}

body {
  font-family: var(--font-family);
  color: var(--color-primary);
  line-height: 1.6;
}

main {
  max-width: 72rem;
  margin: 0 auto;
  padding: 2rem 1.5rem;
}

section {
  padding: 3rem 0;
}

section h2 {
  color: var(--color-accent);
  margin-bottom: 1rem;
}
`)
	return b.String()
}

func pageFile(page domain.Page, componentNames []string) string {
	var b strings.Builder
	for _, name := range componentNames {
		fmt.Fprintf(&b, "import %s from '@/components/sections/%s';\n", name, name)
	}
	if len(componentNames) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("export default function Page() {\n")
	b.WriteString("  return (\n")
	b.WriteString("    <main>\n")
	fmt.Fprintf(&b, "      <h1>%s</h1>\n", escapeJSXText(page.Title))
	for _, name := range componentNames {
		fmt.Fprintf(&b, "      <%s />\n", name)
	}
	b.WriteString("    </main>\n")
	b.WriteString("  );\n")
	b.WriteString("}\n")
	return b.String()
}

func sectionComponent(name string, section domain.PageSection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "export default function %s() {\n", name)
	b.WriteString("  return (\n")
	b.WriteString("    <section>\n")
	if section.Title != "" {
		fmt.Fprintf(&b, "      <h2>%s</h2>\n", escapeJSXText(section.Title))
	}
	fmt.Fprintf(&b, "      <p>%s</p>\n", escapeJSXText(section.Content))
	b.WriteString("    </section>\n")
	b.WriteString("  );\n")
	b.WriteString("}\n")
	return b.String()
}

func readme(siteName string) string {
	return fmt.Sprintf(`# %s

Static site generated by NextGenWeb. Built with Next.js static export.

## Local development

`+"```"+`
npm install
npm run dev
`+"```"+`

## Production build

`+"```"+`
npm run build
`+"```"+`

The exported site is written to the `+"`out/`"+` directory.
`, siteName)
}

func cssValue(v string) string {
	// CSS values end at ; or }. Strip both so injected text cannot break
	// out of the declaration.
	v = strings.NewReplacer(";", "", "}", "", "{", "", "\n", " ").Replace(v)
	return strings.TrimSpace(v)
}
